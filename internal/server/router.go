package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// sender writes one response frame to a client connection. Writes from
// concurrent handlers are serialized by the implementation.
type sender interface {
	send(v any) error
}

// HandlerFunc processes one decoded request. requestID is never empty;
// the router generates one when the client omitted it.
type HandlerFunc func(ctx context.Context, s sender, req *Request, requestID string)

// Router matches request actions against a fixed, case-sensitive table
// and dispatches. Failures of any kind become error events on the same
// connection; dispatch never closes it.
type Router struct {
	handlers map[string]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Handle registers a handler under an action name and any aliases.
func (r *Router) Handle(h HandlerFunc, action string, aliases ...string) {
	r.handlers[action] = h
	for _, alias := range aliases {
		r.handlers[alias] = h
	}
}

// Dispatch decodes one frame and runs its handler. Parse failures emit a
// generic error event carrying whatever request id could be recovered;
// unknown actions emit an error event with the request's id.
func (r *Router) Dispatch(ctx context.Context, s sender, frame []byte) {
	req, recoveredID, err := DecodeRequest(frame)
	if err != nil {
		log.Warn().Err(err).Msg("unparseable request frame")
		sendEvent(s, ErrorEvent{
			Event:     EventError,
			RequestID: recoveredID,
			Message:   "invalid request: expected a JSON object",
		})
		return
	}

	requestID := req.CorrelationID()
	if requestID == "" {
		requestID = GenerateRequestID()
	}

	action := req.ActionName()
	if action == "" {
		sendEvent(s, ErrorEvent{
			Event:     EventError,
			RequestID: requestID,
			Message:   "request has no action",
		})
		return
	}

	handler, ok := r.handlers[action]
	if !ok {
		log.Debug().Str("action", action).Str("request", requestID).Msg("unknown action")
		sendEvent(s, ErrorEvent{
			Event:     EventError,
			RequestID: requestID,
			Message:   fmt.Sprintf("unknown action: %s", action),
		})
		return
	}

	r.invoke(ctx, s, handler, req, requestID)
}

// invoke runs one handler and contains anything it panics with: the
// client gets a correlated error event and the connection, like the
// process, keeps serving.
func (r *Router) invoke(ctx context.Context, s sender, handler HandlerFunc, req *Request, requestID string) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Str("action", req.ActionName()).Str("request", requestID).Msg("handler panicked")
			sendEvent(s, ErrorEvent{
				Event:     EventError,
				RequestID: requestID,
				Message:   "internal error while handling request",
			})
		}
	}()
	handler(ctx, s, req, requestID)
}

func sendEvent(s sender, v any) {
	if err := s.send(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response frame")
	}
}
