package httphandler

import (
	"context"
	"mime"
	"net/http"
	"slices"
)

const (
	MediaJSON      = "application/json"
	MediaMultipart = "multipart/form-data"
)

// AllowMedia rejects requests with a body of other media types.
func AllowMedia(types ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || !slices.Contains(types, mediaType) {
				writeError(w, http.StatusUnsupportedMediaType, "invalid media type")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hf)
	}
}

func AllowJSON(next http.Handler) http.Handler {
	return AllowMedia(MediaJSON)(next)
}

type sessionKey struct{}

// RequireSession puts the session id from the header into
// the request context. Requests without it are rejected.
func RequireSession(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(header)
			if sessionID == "" {
				writeError(w, http.StatusBadRequest, "missing "+header+" header")
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey{}, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hf)
	}
}

func sessionFrom(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionKey{}).(string)
	return sessionID
}
