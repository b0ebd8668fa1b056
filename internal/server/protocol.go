package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/orrn/printbridge/internal/bridge"
)

// Request is the wire envelope clients send, one JSON object per frame.
// Clients in the field use several field spellings for the same thing, so
// the envelope accepts all of them and Action()/ID()/Body() pick the
// populated one.
type Request struct {
	Action    string              `json:"action"`
	Type      string              `json:"type"`
	RequestID string              `json:"requestId"`
	ID        string              `json:"id"`
	Data      string              `json:"data"`
	Image     string              `json:"image"`
	PDF       string              `json:"pdf"`
	Options   bridge.PrintOptions `json:"options"`
}

// ActionName returns the action field, falling back to the legacy type
// field.
func (r *Request) ActionName() string {
	if r.Action != "" {
		return r.Action
	}
	return r.Type
}

// CorrelationID returns the client-chosen request id, or "" when absent.
func (r *Request) CorrelationID() string {
	if r.RequestID != "" {
		return r.RequestID
	}
	return r.ID
}

// Body returns the document payload regardless of which field carried it.
func (r *Request) Body() string {
	switch {
	case r.Data != "":
		return r.Data
	case r.Image != "":
		return r.Image
	default:
		return r.PDF
	}
}

// GenerateRequestID produces a correlation id for requests that omitted
// one, so every response still round-trips an id.
func GenerateRequestID() string {
	return fmt.Sprintf("auto_%d", time.Now().UnixMilli())
}

const (
	EventWelcome     = "welcome"
	EventPrinterList = "printerList"
	EventPrintResult = "printResult"
	EventSaveResult  = "saveResult"
	EventError       = "error"
)

type WelcomeEvent struct {
	Event   string `json:"event"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

type PrinterListEvent struct {
	Event     string           `json:"event"`
	RequestID string           `json:"requestId"`
	Printers  []bridge.Printer `json:"printers"`
}

type PrintResultEvent struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Printer   string `json:"printer,omitempty"`
	Fallback  bool   `json:"fallback,omitempty"`
	Error     string `json:"error,omitempty"`
}

type SaveResultEvent struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Path      string `json:"path,omitempty"`
	Canceled  bool   `json:"canceled,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ErrorEvent struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId,omitempty"`
	Message   string `json:"message"`
}

// DecodeRequest parses one frame. It returns whatever correlation id it
// could recover even on failure, so the error event can still be
// correlated.
func DecodeRequest(frame []byte) (*Request, string, error) {
	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		// Best effort: the envelope may be broken while the id fields
		// are still readable.
		var partial struct {
			RequestID string `json:"requestId"`
			ID        string `json:"id"`
		}
		_ = json.Unmarshal(frame, &partial)
		id := partial.RequestID
		if id == "" {
			id = partial.ID
		}
		return nil, id, fmt.Errorf("failed to parse request frame: %w", err)
	}
	return &req, req.CorrelationID(), nil
}
