// Package httpapi is the HTTP transport: routing, middleware and the JSON
// request/response envelope over the domain services.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dropnote/dropnote/internal/logging"
	"github.com/dropnote/dropnote/internal/server/config"
	"github.com/dropnote/dropnote/internal/server/gifs"
	"github.com/dropnote/dropnote/internal/server/services"
	"github.com/gorilla/mux"
)

// NewRouter assembles all routes. Viewer endpoints stay outside the
// authenticated subrouter: the view token itself is the credential there.
func NewRouter(
	cfg *config.Config,
	logger logging.Logger,
	users *services.UserService,
	messages *services.MessageService,
	catalogue gifs.Catalogue,
) *mux.Router {
	authHandler := NewAuthHandler(users)
	messageHandler := NewMessageHandler(messages, users, cfg)
	gifHandler := NewGifHandler(catalogue)

	r := mux.NewRouter()
	r.Use(RequestLogger(logger))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	api.HandleFunc("/message/view/{vtoken}", messageHandler.View).Methods(http.MethodGet)
	api.HandleFunc("/message/view/{vtoken}", messageHandler.Respond).Methods(http.MethodPost)

	api.HandleFunc("/health/gif", gifHandler.Health).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(Authenticate([]byte(cfg.SecretKey)))

	authed.HandleFunc("/auth/extend", authHandler.Extend).Methods(http.MethodPost)

	authed.HandleFunc("/message", messageHandler.List).Methods(http.MethodGet)
	authed.HandleFunc("/message", messageHandler.Create).Methods(http.MethodPost)
	authed.HandleFunc("/message/{id}", messageHandler.Get).Methods(http.MethodGet)
	authed.HandleFunc("/message/{id}", messageHandler.Update).Methods(http.MethodPut)
	authed.HandleFunc("/message/{id}", messageHandler.Delete).Methods(http.MethodDelete)

	authed.HandleFunc("/gif", gifHandler.Search).Methods(http.MethodGet)
	authed.HandleFunc("/gif/{id}", gifHandler.Find).Methods(http.MethodGet)

	return r
}

// Server wraps http.Server with a bounded shutdown.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

func NewServer(addr string, handler http.Handler, logger logging.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run blocks serving requests until the listener fails or Shutdown is
// called; a clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "http server shutting down")
	return s.srv.Shutdown(ctx)
}
