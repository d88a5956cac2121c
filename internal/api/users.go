package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yuriscavalcante/rh360/internal/platform/rbac"
	userrepo "github.com/yuriscavalcante/rh360/internal/user/repository"
	userservice "github.com/yuriscavalcante/rh360/internal/user/service"
)

// handleDisableUser disables a principal and revokes all of its credentials. Admins only.
func (s *Server) handleDisableUser(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireAdmin(r.Context())
	if err != nil {
		if errors.Is(err, rbac.ErrUnauthenticated) {
			writeUnauthorized(w)
			return
		}
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "admin role required")
		return
	}
	err = s.users.Disable(r.Context(), p.ID, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, userrepo.ErrUserNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "user not found")
		return
	case errors.Is(err, userservice.ErrSelfDisable):
		writeBadRequest(w, err.Error())
		return
	case err != nil:
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "user disabled"})
}
