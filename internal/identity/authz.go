package identity

import (
	"net/http"

	"github.com/campuscanteen/canteen-api/internal/platform/httpx"
)

// RequireAdmin guards the back-office routes. Anonymous requests get 401,
// signed-in non-admins 403.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			if !id.IsAdmin {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
