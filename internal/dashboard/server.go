// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dashboard serves a small HTTP front end for brainstorming
// sessions, RAG questions and the generated reports.
package dashboard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/topic-brainstorm/internal/chat"
	"github.com/pdiddy/topic-brainstorm/internal/llm"
	"github.com/pdiddy/topic-brainstorm/internal/logger"
	"github.com/pdiddy/topic-brainstorm/internal/pipeline"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
var shutdownTimeout = 10 * time.Second

// BrainstormFunc runs one brainstorming session with cfg, writing progress to out.
type BrainstormFunc func(ctx context.Context, cfg types.Config, opts pipeline.Options, out io.Writer) (*pipeline.Result, error)

// AnswerFunc answers question from the persisted store, passing each token
// to onToken as it arrives.
type AnswerFunc func(ctx context.Context, cfg types.Config, question string, onToken func(string) error) error

// Server holds the dashboard routes. Only one session or question runs at a
// time; the vector store is rebuilt by every session.
type Server struct {
	cfg        types.Config
	log        *logger.Logger
	brainstorm BrainstormFunc
	answer     AnswerFunc
	busy       sync.Mutex
	router     chi.Router
}

// Option customizes a Server.
type Option func(*Server)

// WithBrainstorm replaces the session runner.
func WithBrainstorm(f BrainstormFunc) Option {
	return func(s *Server) { s.brainstorm = f }
}

// WithAnswer replaces the question answerer.
func WithAnswer(f AnswerFunc) Option {
	return func(s *Server) { s.answer = f }
}

// New builds a Server. By default sessions and questions talk to the
// Ollama host named in the per-request configuration.
func New(cfg types.Config, log *logger.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		cfg:        cfg,
		log:        log.With("component", "dashboard"),
		brainstorm: runPipeline(log),
		answer:     answerFromStore(log),
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Post("/brainstorm", s.handleBrainstorm)
		r.Post("/chat", s.handleChat)
	})
	r.Get("/reports/{name}", s.handleReport)
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.log.Info("dashboard shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runPipeline(log *logger.Logger) BrainstormFunc {
	return func(ctx context.Context, cfg types.Config, opts pipeline.Options, out io.Writer) (*pipeline.Result, error) {
		client := llm.NewClient(cfg.Ollama, log)
		return pipeline.NewWithClient(cfg, client, out, log).Run(ctx, opts)
	}
}

func answerFromStore(log *logger.Logger) AnswerFunc {
	return func(ctx context.Context, cfg types.Config, question string, onToken func(string) error) error {
		client := llm.NewClient(cfg.Ollama, log)
		sess, closeStore, err := chat.Open(cfg, client, log)
		if err != nil {
			return err
		}
		defer closeStore()
		_, err = sess.Ask(ctx, question, onToken)
		return err
	}
}
