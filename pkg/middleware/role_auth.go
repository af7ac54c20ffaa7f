package middleware

import "net/http"

// Role names as embedded in token claims.
const (
	RoleClient   = "CLIENT"
	RoleProvider = "PROVIDER"
	RoleAdmin    = "ADMIN"
)

// RoleAuthMiddleware checks if the user has one of the required roles
func RoleAuthMiddleware(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRoleFromContext(r.Context())
			if !ok || role == "" {
				sendUnauthorized(w, "User role not found")
				return
			}

			for _, allowed := range allowedRoles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			sendForbidden(w, "Insufficient permissions")
		})
	}
}

// RequireAdmin requires the ADMIN role.
func RequireAdmin(next http.Handler) http.Handler {
	return RoleAuthMiddleware(RoleAdmin)(next)
}

// RequireProvider requires the PROVIDER or ADMIN role.
func RequireProvider(next http.Handler) http.Handler {
	return RoleAuthMiddleware(RoleProvider, RoleAdmin)(next)
}

// RequireUser allows any authenticated user.
func RequireUser(next http.Handler) http.Handler {
	return RoleAuthMiddleware(RoleClient, RoleProvider, RoleAdmin)(next)
}

func sendForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"success":false,"error":{"code":"FORBIDDEN","message":"` + message + `"}}`))
}
