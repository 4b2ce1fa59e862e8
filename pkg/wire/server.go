package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
)

// HandlerFunc runs one command and returns its payload or an error.
type HandlerFunc func(context.Context, Args) (any, error)

// Logger is satisfied by logging.Logger; kept minimal to avoid dependency cycles.
type Logger interface {
	Printf(format string, v ...any)
}

// Observer is told about every completed request. err is nil on success.
type Observer func(req Request, err error)

// Server reads REQ lines one at a time and answers each with exactly one
// RES line. Requests are never handled concurrently.
type Server struct {
	out      *Writer
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	observer Observer
	logger   Logger

	// busy is held while a request is handled.
	busy    sync.Mutex
	stopped bool
}

// NewServer constructs a server writing to out.
func NewServer(out *Writer, logger Logger) *Server {
	return &Server{
		out:      out,
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Register installs a handler for a command.
func (s *Server) Register(command string, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[command] = handler
}

// Observe installs a hook called after every request.
func (s *Server) Observe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Serve handles lines from r until end of input, which is not an error.
func (s *Server) Serve(ctx context.Context, r io.Reader) error {
	lines := NewLineReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := lines.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		s.HandleLine(ctx, line)
	}
}

// HandleLine decodes and dispatches a single line. Lines arriving after
// Stop are dropped.
func (s *Server) HandleLine(ctx context.Context, line string) {
	s.busy.Lock()
	defer s.busy.Unlock()
	if s.stopped {
		return
	}
	req, err := DecodeRequest(line)
	if err != nil {
		s.Log("warn", "Bad line: "+line)
		return
	}
	payload, err := s.dispatch(ctx, req)
	resp := Response{ID: req.ID, OK: err == nil, Payload: payload}
	if err != nil {
		resp.Error = err.Error()
	}
	if werr := s.out.WriteResponse(resp); werr != nil {
		s.logf("write response %d: %v", req.ID, werr)
	}
	s.mu.RLock()
	observer := s.observer
	s.mu.RUnlock()
	if observer != nil {
		observer(req, err)
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) (payload any, err error) {
	handler := s.lookupHandler(req.Command)
	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command)
	}
	defer func() {
		if r := recover(); r != nil {
			s.logf("panic in %s: %v", req.Command, r)
			payload, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()
	return handler(ctx, req.Args)
}

func (s *Server) lookupHandler(command string) HandlerFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers[command]
}

// Stop waits for the request in progress, if any, and makes the server
// drop every later line. Handlers must not call it.
func (s *Server) Stop() {
	s.busy.Lock()
	defer s.busy.Unlock()
	s.stopped = true
}

// Emit writes an EVT line. It is safe to call from any goroutine.
func (s *Server) Emit(eventType string, payload any) {
	if err := s.out.WriteEvent(Event{Type: eventType, Payload: payload}); err != nil {
		s.logf("write event %s: %v", eventType, err)
	}
}

// Log emits a LOG event.
func (s *Server) Log(level, message string) {
	s.Emit(EventLog, map[string]any{"level": level, "message": message})
}

func (s *Server) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	} else {
		log.Printf(format, v...)
	}
}
