// Package devserver is an in-memory implementation of the calendar REST
// API, used for local development and for end-to-end tests of the
// controllers.
package devserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TokenHeader carries the session token.
const TokenHeader = "x-token"

// Messages returned in {ok:false, msg} bodies.
const (
	msgBadCredentials    = "Credenciales incorrectas"
	msgUserExists        = "Usuario ya existe."
	msgNoToken           = "No hay token en la petición"
	msgInvalidToken      = "Token no válido"
	msgEventNotFound     = "Evento no existe por ese id"
	msgNoEditPrivilege   = "No tiene privilegio de editar este evento"
	msgNoDeletePrivilege = "No tiene privilegio de eliminar este evento"
	msgContactAdmin      = "Por favor hable con el administrador"
)

// Config configures a Server.
type Config struct {
	// Prefix is where the API is mounted; "/api" when empty.
	Prefix   string
	Secret   []byte
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Logger     *zerolog.Logger
	Now        func() time.Time
}

// Server serves the calendar API from memory.
type Server struct {
	prefix string
	store  *memStore
	tokens *TokenIssuer
	log    zerolog.Logger
	router *mux.Router
}

// New builds a Server and its routes.
func New(cfg Config) (*Server, error) {
	tokens, err := NewTokenIssuer(cfg.Secret, cfg.TokenTTL, cfg.Now)
	if err != nil {
		return nil, err
	}
	prefix := "/api"
	if p := strings.Trim(cfg.Prefix, "/"); p != "" {
		prefix = "/" + p
	}
	l := log.Logger
	if cfg.Logger != nil {
		l = *cfg.Logger
	}
	s := &Server{
		prefix: prefix,
		store:  newMemStore(cfg.BcryptCost),
		tokens: tokens,
		log:    l.With().Str("component", "devserver").Logger(),
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler { return s.router }

// Prefix returns the mount point of the API.
func (s *Server) Prefix() string { return s.prefix }

// buildRouter wires HTTP routes to handlers.
func (s *Server) buildRouter() *mux.Router {
	root := mux.NewRouter()
	root.Use(recoverer(s.log), accessLog(s.log))
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMsg(w, http.StatusNotFound, "Not found")
	})

	api := root.PathPrefix(s.prefix).Subrouter()

	// Auth
	api.HandleFunc("/auth", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/new", s.register).Methods(http.MethodPost)
	api.Handle("/auth/renew", s.requireToken(http.HandlerFunc(s.renew))).Methods(http.MethodGet)

	// Events
	events := api.PathPrefix("/events").Subrouter()
	events.Use(s.requireToken)
	events.HandleFunc("", s.listEvents).Methods(http.MethodGet)
	events.HandleFunc("", s.createEvent).Methods(http.MethodPost)
	events.HandleFunc("/{id}", s.updateEvent).Methods(http.MethodPut)
	events.HandleFunc("/{id}", s.deleteEvent).Methods(http.MethodDelete)

	return root
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, forbiddenMsg string) {
	switch {
	case errors.Is(err, ErrEventNotFound):
		writeMsg(w, http.StatusNotFound, msgEventNotFound)
	case errors.Is(err, ErrForbidden):
		writeMsg(w, http.StatusUnauthorized, forbiddenMsg)
	default:
		s.log.Error().Stack().Err(err).Msg("store failure")
		writeInternal(w)
	}
}
