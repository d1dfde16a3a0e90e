package middlewares

import (
	"net/http"

	"github.com/go-chi/oauth"

	"github.com/formlab/formlab/httpx"
)

// Identify resolves the caller's identity when a bearer token is present, and
// lets anonymous requests through untouched. Handlers that allow anonymous
// access (public form reads and submissions) sit behind this alone; handlers
// that require a caller add Authenticated on top.
func Identify(secret string) func(http.Handler) http.Handler {
	authorize := oauth.Authorize(secret, nil)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			// run the oauth middleware against a buffer so a bad token can be
			// reported without it having touched the real writer
			buf := httpx.NewResponseBuffer()
			var authed *http.Request
			authorize(http.HandlerFunc(func(_ http.ResponseWriter, r2 *http.Request) {
				authed = r2
			})).ServeHTTP(buf, r)

			if authed == nil {
				buf.Flush(w)
				return
			}
			next.ServeHTTP(w, authed)
		})
	}
}

// Authenticated rejects requests that carry no verified identity.
func Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
