package middleware

import (
	"net/http"

	"github.com/harborline/stockroom-backend/api/responses"
	"github.com/harborline/stockroom-backend/pkg/enums"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/pkg/logger"
)

// RequireRole gates a route group to the listed roles. It reads the role
// seeded by Auth, so it must be mounted after it.
func RequireRole(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actual := RoleFromContext(r.Context())
			for _, role := range roles {
				if actual == role.String() {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
		})
	}
}
