package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// EventsPath matches the path the SDK transport posts to.
const EventsPath = "/api/v0/events"

type Server struct {
	public       *http.Server
	publicRouter *chi.Mux

	handler *Handler
}

func New(handler *Handler) *Server {
	s := &Server{
		publicRouter: chi.NewRouter(),

		handler: handler,
	}
	return s
}

func (s *Server) ServePublic(addr string, mws ...func(http.Handler) http.Handler) error {
	s.public = &http.Server{
		Addr:         addr,
		Handler:      s.Router(mws...),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	return s.public.ListenAndServe()
}

func (s *Server) ShutdownPublic(ctx context.Context) error {
	if s.public == nil {
		return nil
	}
	if err := s.public.Shutdown(ctx); err != nil {
		return s.public.Close()
	}
	return nil
}

// Router registers the public routes once and returns the router.
func (s *Server) Router(mws ...func(http.Handler) http.Handler) http.Handler {
	s.registerPublicRoutes(mws...)
	return s.publicRouter
}

func (s *Server) registerPublicRoutes(middlewares ...func(http.Handler) http.Handler) {
	s.publicRouter.Use(middleware.RequestID, middleware.Recoverer)
	s.publicRouter.Use(middlewares...)
	s.publicRouter.Get("/_/ready", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	s.publicRouter.Post(EventsPath, s.handler.Events)
}
