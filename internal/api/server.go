// Package api exposes the webmail engine as a JSON HTTP API. It owns
// routing, session token plumbing, and error-to-status mapping; all
// mailbox semantics live in the webmail service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/tohur/webmail/internal/config"
	"github.com/tohur/webmail/internal/webmail"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyToken contextKey = "session_token"

// Server is the HTTP front of the webmail engine.
type Server struct {
	addr        string
	svc         *webmail.Service
	server      *http.Server
	tls         bool
	tlsCertFile string
	tlsKeyFile  string
}

// New creates an API server for the given service.
func New(svc *webmail.Service, cfg config.HTTPConfig) (*Server, error) {
	if cfg.TLS && (cfg.TLSCertFile == "" || cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("TLS certificate and key files are required when TLS is enabled")
	}

	return &Server{
		addr:        cfg.Addr,
		svc:         svc,
		tls:         cfg.TLS,
		tlsCertFile: cfg.TLSCertFile,
		tlsKeyFile:  cfg.TLSKeyFile,
	}, nil
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("webmail api: shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Printf("webmail api: error shutting down server: %v", err)
		}
	}()

	protocol := "HTTP"
	if s.tls {
		protocol = "HTTPS"
	}
	log.Printf("webmail api: starting %s server on %s", protocol, s.addr)

	if s.tls {
		return s.server.ListenAndServeTLS(s.tlsCertFile, s.tlsKeyFile)
	}
	return s.server.ListenAndServe()
}

// setupRoutes configures all HTTP routes and middleware.
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Login is the only route reachable without a session.
	v1.HandleFunc("/auth/login", s.handleLogin).Methods("POST")

	authed := v1.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)

	authed.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")
	authed.HandleFunc("/identity", s.handleGetIdentity).Methods("GET")
	authed.HandleFunc("/identity", s.handleUpdateIdentity).Methods("PUT")
	// {folder:.+} spans slashes so nested paths like "INBOX/Sent" are
	// addressable; the fixed /messages suffix keeps the match anchored.
	authed.HandleFunc("/folders", s.handleListFolders).Methods("GET")
	authed.HandleFunc("/folders/{folder:.+}/messages", s.handleListMessages).Methods("GET")
	authed.HandleFunc("/folders/{folder:.+}/messages/{uid}", s.handleViewMessage).Methods("GET")
	authed.HandleFunc("/folders/{folder:.+}/messages/{uid}/move", s.handleMoveMessage).Methods("POST")
	authed.HandleFunc("/folders/{folder:.+}/messages/{uid}", s.handleDeleteMessage).Methods("DELETE")

	return router
}

// Middleware functions

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("webmail api: %s %s (%v)", r.Method, r.URL.Path, time.Since(start))
	})
}

// authMiddleware extracts the bearer session token and verifies the
// session is live before any mailbox handler runs.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		if !s.svc.IsAuthenticated(token) {
			s.writeError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the session token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("Authorization header required")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("Authorization header must be 'Bearer <token>'")
	}
	return parts[1], nil
}

// sessionToken retrieves the validated token from the request context.
func sessionToken(ctx context.Context) string {
	token, _ := ctx.Value(contextKeyToken).(string)
	return token
}

// Response helpers

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("webmail api: encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
