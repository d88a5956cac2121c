package api

import (
	"errors"
	"net/http"

	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	"github.com/yuriscavalcante/rh360/internal/guard"
	handoffservice "github.com/yuriscavalcante/rh360/internal/handoff/service"
)

// handleQRCode issues a hand-off credential for the caller and returns it as a QR image.
// Optional query parameters id and path shape the link the QR points at.
func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	p, _ := guard.PrincipalFrom(r.Context())
	q := r.URL.Query()
	qr, err := s.handoffs.GenerateQR(r.Context(), p.ID, q.Get("id"), q.Get("path"))
	switch {
	case errors.Is(err, handoffservice.ErrPrincipalNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "user not found")
		return
	case errors.Is(err, handoffservice.ErrIssueDenied):
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "not allowed to issue a QR code")
		return
	case errors.Is(err, credservice.ErrUnavailable):
		writeUnavailable(w)
		return
	case err != nil:
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

// handleRedeem consumes the hand-off credential that the guard already checked and returns its principal.
// A concurrent redeem of the same token loses with the generic 401.
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	res, err := s.handoffs.Redeem(r.Context(), guard.HandoffToken(r))
	if err != nil {
		writeUnavailable(w)
		return
	}
	if !res.OK() {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, res.Principal)
}
