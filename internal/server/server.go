// Package server implements the client-facing socket protocol: a TCP
// listener speaking newline-delimited JSON frames, a connection registry
// and the action router that drives the print pipeline.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orrn/printbridge/internal/config"
)

// Server owns the bridge listener and one goroutine per accepted
// connection.
type Server struct {
	cfg      config.BridgeConfig
	router   *Router
	registry *Registry
	version  string

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	wg       sync.WaitGroup
}

func New(cfg config.BridgeConfig, router *Router, registry *Registry, version string) *Server {
	return &Server{
		cfg:      cfg,
		router:   router,
		registry: registry,
		version:  version,
	}
}

// Start binds the listener and begins accepting. When the configured
// port is taken and retry_random_port is set, it falls back to an
// OS-assigned port; Port() reports the one actually bound.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if !s.cfg.RetryRandom {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		log.Warn().Err(err).Int("port", s.cfg.Port).Msg("configured port unavailable, retrying on a random port")
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to listen on a random port: %w", err)
		}
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	log.Info().Str("addr", listener.Addr().String()).Str("version", s.version).Msg("bridge listening")

	s.wg.Add(1)
	go s.acceptLoop(ctx)
	return nil
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Shutdown stops accepting and waits for in-flight connections to drain
// or the context to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		_ = listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		netConn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn().Err(err).Msg("accept failed")
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, netConn)
		}()
	}
}

// conn wraps one client socket. Handlers for different frames may run
// concurrently, so response writes are serialized under mu.
type conn struct {
	id           string
	net          net.Conn
	enc          *json.Encoder
	writeTimeout time.Duration
	mu           sync.Mutex
}

func (c *conn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.net.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	// Encode appends the newline frame terminator.
	return c.enc.Encode(v)
}

func (s *Server) serveConn(ctx context.Context, netConn net.Conn) {
	defer netConn.Close()

	c := &conn{
		id:           uuid.NewString(),
		net:          netConn,
		enc:          json.NewEncoder(netConn),
		writeTimeout: s.cfg.WriteTimeout,
	}

	info := s.registry.Register(c.id, netConn.RemoteAddr().String())
	defer s.registry.Unregister(c.id)

	log.Info().Str("conn", c.id).Str("ip", info.IP).Msg("client connected")

	if err := c.send(WelcomeEvent{
		Event:   EventWelcome,
		Version: s.version,
		Time:    time.Now().Format(time.RFC3339),
	}); err != nil {
		log.Warn().Err(err).Str("conn", c.id).Msg("failed to send welcome")
		return
	}

	scanner := bufio.NewScanner(netConn)
	scanner.Buffer(make([]byte, 64*1024), s.cfg.MaxFrameBytes)

	var handlers sync.WaitGroup
	defer handlers.Wait()

	for {
		if s.cfg.ReadTimeout > 0 {
			_ = netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		if !scanner.Scan() {
			break
		}

		frame := make([]byte, len(scanner.Bytes()))
		copy(frame, scanner.Bytes())
		if len(frame) == 0 {
			continue
		}

		// Frames are read in order but handled concurrently so one slow
		// print job does not stall the connection.
		handlers.Add(1)
		go func() {
			defer handlers.Done()
			s.router.Dispatch(ctx, c, frame)
		}()
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Debug().Err(err).Str("conn", c.id).Msg("read loop ended")
	}
	log.Info().Str("conn", c.id).Str("ip", info.IP).Msg("client disconnected")
}
