package middleware

import (
	"net/http"

	"github.com/agroscan/agroscan-backend/api/responses"
	"github.com/agroscan/agroscan-backend/pkg/enums"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

// RequireRole gates a subtree to one role. The dashboards are role-scoped, so
// a farmer token never reaches agronomist handlers and vice versa.
func RequireRole(role enums.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != string(role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
