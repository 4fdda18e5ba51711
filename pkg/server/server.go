// Package server exposes the chat controller over HTTP with a websocket
// state feed and a small embedded browser client.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"gemchat/pkg/chat"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithModelLabel sets the provider/model label reported by /api/state.
func WithModelLabel(label string) Option {
	return func(s *Server) {
		s.modelLabel = label
	}
}

// Server serves the browser UI for one controller.
type Server struct {
	ctrl       *chat.Controller
	hub        *Hub
	modelLabel string

	// baseCtx bounds gateway calls started by POST /api/messages.
	baseCtx context.Context
	turns   sync.WaitGroup

	router http.Handler
}

// New creates a server for ctrl. Controller changes are pushed to websocket
// clients from here on.
func New(ctx context.Context, ctrl *chat.Controller, opts ...Option) *Server {
	s := &Server{
		ctrl:    ctrl,
		baseCtx: ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(ctrl.Snapshot)
	ctrl.OnChange(s.hub.Broadcast)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Wait blocks until background gateway calls have finished.
func (s *Server) Wait() {
	s.turns.Wait()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/messages", s.handleSendMessage)
		r.Get("/chats", s.handleListChats)
		r.Post("/chats", s.handleNewChat)
		r.Post("/chats/{id}/select", s.handleSelectChat)
		r.Post("/sidebar/toggle", s.handleToggleSidebar)
		r.Get("/ws", s.hub.HandleWebSocket)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// disconnects websocket clients and waits for outstanding gateway calls.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_listen", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return err
	case <-ctx.Done():
	}

	slog.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.hub.Close()
	s.Wait()

	if listenErr := <-errCh; listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
		return listenErr
	}
	return err
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimiddleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		)
	})
}
