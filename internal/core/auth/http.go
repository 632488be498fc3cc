package auth

import (
	"net/http"
)

// Middleware injects the X-User-Id header value into the request context.
// onError writes the response for a malformed identity.
func Middleware(onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := ParseUserID(r.Header.Get(UserIDHeader))
			if err != nil {
				onError(w, r, err)
				return
			}
			if id != "" {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
