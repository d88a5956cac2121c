package guard

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const (
	bearerPrefix = "bearer "
	maxTokenBody = 1 << 20
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BearerToken returns the token of an "Authorization: Bearer <t>" header, or "".
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// HandoffToken returns the token query parameter, or else the token field of a JSON or form body.
// The body is restored so the handler can read it again.
func HandoffToken(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t
	}
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		vals, err := url.ParseQuery(string(raw))
		if err != nil {
			return ""
		}
		return strings.TrimSpace(vals.Get("token"))
	default:
		var body struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return ""
		}
		return strings.TrimSpace(body.Token)
	}
}

// RequireSession rejects requests without a valid session bearer credential.
// Requests whose path is in publicPaths pass through untouched.
func RequireSession(g *Guard, publicPaths ...string) func(http.Handler) http.Handler {
	return require(g, BearerToken, publicPaths)
}

// RequireHandoff rejects requests without a valid hand-off credential in the query or body.
func RequireHandoff(g *Guard) func(http.Handler) http.Handler {
	return require(g, HandoffToken, nil)
}

func require(g *Guard, extract func(*http.Request) string, publicPaths []string) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			p, err := g.Check(r.Context(), extract(r))
			if err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// WriteError writes the uniform rejection for a Check error: 503 for ErrUnavailable, 401 otherwise.
func WriteError(w http.ResponseWriter, err error) {
	status, body := http.StatusUnauthorized, errorDetail{Code: "unauthorized", Message: GenericMessage}
	if errors.Is(err, ErrUnavailable) {
		status, body = http.StatusServiceUnavailable, errorDetail{Code: "unavailable", Message: "service temporarily unavailable"}
	}
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="rh360"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: body})
}
