package api

import (
	"encoding/json"
	"errors"
	"net/http"

	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	"github.com/yuriscavalcante/rh360/internal/guard"
	identityservice "github.com/yuriscavalcante/rh360/internal/identity/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

// handleLogin exchanges email and password for a session credential. Any earlier session is revoked.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, identityservice.ErrInvalidCredentials):
		writeUnauthorized(w)
		return
	case errors.Is(err, credservice.ErrUnavailable):
		writeUnavailable(w)
		return
	case err != nil:
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{ID: res.UserID, Token: res.Token})
}

// handleLogout deactivates the presented session credential.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), guard.BearerToken(r)); err != nil {
		if errors.Is(err, credservice.ErrUnavailable) {
			writeUnavailable(w)
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// handleValidate reports whether the bearer session credential is valid. Reasons are never disclosed.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	token := guard.BearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, validateResponse{Valid: false})
		return
	}
	res, err := s.sessions.Validate(r.Context(), token)
	if err != nil {
		writeUnavailable(w)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: res.OK()})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := guard.PrincipalFrom(r.Context())
	writeJSON(w, http.StatusOK, p)
}
