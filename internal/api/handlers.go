package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tohur/webmail/internal/mail"
	"github.com/tohur/webmail/internal/model"
	"github.com/tohur/webmail/internal/store"
)

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and the resolved identity.
type LoginResponse struct {
	Token    string          `json:"token"`
	Identity *model.Identity `json:"identity"`
}

// MoveRequest names the destination folder of a move.
type MoveRequest struct {
	To string `json:"to"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	identity, token, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if mail.IsAuthError(err) {
			// Don't reveal which part of the credentials failed.
			s.writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("webmail api: login error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	s.writeJSON(w, http.StatusOK, LoginResponse{Token: token, Identity: identity})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.svc.Logout(sessionToken(r.Context()))
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	identity, err := s.svc.CurrentIdentity(r.Context(), sessionToken(r.Context()))
	if err != nil {
		s.writeServiceError(w, err, "Failed to load identity")
		return
	}
	s.writeJSON(w, http.StatusOK, identity)
}

func (s *Server) handleUpdateIdentity(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var profile model.IdentityProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := s.svc.UpdateIdentity(r.Context(), sessionToken(r.Context()), profile)
	if err != nil {
		s.writeServiceError(w, err, "Failed to update identity")
		return
	}
	s.writeJSON(w, http.StatusOK, identity)
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.svc.ListFolders(r.Context(), sessionToken(r.Context()))
	if err != nil {
		s.writeServiceError(w, err, "Failed to list folders")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	folder := mux.Vars(r)["folder"]

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err == nil {
			// Invalid limits fall back to the configured default.
			limit = parsed
		}
	}
	order := model.SortOrder(r.URL.Query().Get("sort"))

	messages, err := s.svc.ListMessages(r.Context(), sessionToken(r.Context()), folder, limit, order)
	if err != nil {
		s.writeServiceError(w, err, "Failed to list messages")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"folder":   folder,
		"messages": messages,
	})
}

func (s *Server) handleViewMessage(w http.ResponseWriter, r *http.Request) {
	folder, uid, ok := s.messageTarget(w, r)
	if !ok {
		return
	}

	view, err := s.svc.ViewMessage(r.Context(), sessionToken(r.Context()), folder, uid)
	if err != nil {
		s.writeServiceError(w, err, "Failed to load message")
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMoveMessage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	folder, uid, ok := s.messageTarget(w, r)
	if !ok {
		return
	}

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.To == "" {
		s.writeError(w, http.StatusBadRequest, "Destination folder is required")
		return
	}

	messages, err := s.svc.MoveMessage(r.Context(), sessionToken(r.Context()), folder, uid, req.To)
	if err != nil {
		s.writeServiceError(w, err, "Failed to move message")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"folder":   folder,
		"messages": messages,
	})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	folder, uid, ok := s.messageTarget(w, r)
	if !ok {
		return
	}

	messages, err := s.svc.DeleteMessage(r.Context(), sessionToken(r.Context()), folder, uid)
	if err != nil {
		s.writeServiceError(w, err, "Failed to delete message")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"folder":   folder,
		"messages": messages,
	})
}

// messageTarget extracts the folder and UID path variables.
func (s *Server) messageTarget(w http.ResponseWriter, r *http.Request) (string, uint32, bool) {
	vars := mux.Vars(r)
	uid, err := strconv.ParseUint(vars["uid"], 10, 32)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid message UID")
		return "", 0, false
	}
	return vars["folder"], uint32(uid), true
}

// writeServiceError maps engine errors onto HTTP statuses. Not-found
// conditions are surfaced distinctly so the presentation layer can
// show a specific message.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case mail.IsFolderNotFound(err):
		s.writeError(w, http.StatusNotFound, "Folder not found")
	case mail.IsMessageNotFound(err):
		s.writeError(w, http.StatusNotFound, "Message not found")
	case mail.IsConnectionError(err):
		log.Printf("webmail api: mail server error: %v", err)
		s.writeError(w, http.StatusBadGateway, "Mail server unavailable")
	case errors.Is(err, store.ErrIdentityNotFound):
		s.writeError(w, http.StatusUnauthorized, "Invalid or expired session")
	default:
		log.Printf("webmail api: %s: %v", fallback, err)
		s.writeError(w, http.StatusInternalServerError, fallback)
	}
}
