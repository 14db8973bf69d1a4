package chi

import (
	"context"
	"net/http"
	"strings"
)

type privilegedKey struct{}

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Privileged reports whether the request presented a valid backoffice key.
func Privileged(ctx context.Context) bool {
	v, _ := ctx.Value(privilegedKey{}).(bool)
	return v
}

// BackofficeAuthMiddleware returns a middleware recognizing Bearer backoffice
// keys. The API stays publicly readable: requests without an Authorization
// header pass through anonymously, a valid key marks the request privileged,
// and a wrong key is rejected.
func BackofficeAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		// No keys configured, everything stays anonymous
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exempt paths
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			token := auth[len(bearerPrefix):]
			if _, ok := validKeys[token]; !ok {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			ctx := context.WithValue(r.Context(), privilegedKey{}, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
