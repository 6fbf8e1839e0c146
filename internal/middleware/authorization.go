package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// IsSafeMethod reports whether method only reads state
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// ReadOnlyOrAuthenticated lets anyone read, and requires an authenticated user for
// writes unless openWrites is set. It expects OptionalAuthMiddleware to run first.
func ReadOnlyOrAuthenticated(openWrites bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if openWrites || IsSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := GetUserID(r.Context())
			if !ok {
				logger.Debug("Anonymous write rejected",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}

			role, _ := GetUserRole(r.Context())
			logger.Debug("Write authorized",
				zap.String("user_id", userID.String()),
				zap.String("role", role),
			)
			next.ServeHTTP(w, r)
		})
	}
}
