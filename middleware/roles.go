package middleware

import (
	"net/http"

	"github.com/MrEthical07/skillsync/access"
	"github.com/MrEthical07/skillsync/identity"
)

// RequireClient admits only client accounts.
func RequireClient(source SessionSource) func(http.Handler) http.Handler {
	return Protect(source, access.Requirement{Role: identity.RoleClient})
}

// RequireFreelancer admits only freelancer accounts.
func RequireFreelancer(source SessionSource) func(http.Handler) http.Handler {
	return Protect(source, access.Requirement{Role: identity.RoleFreelancer})
}

// Routes wraps next with the guard of whichever table route matches the
// request path. Public routes and paths outside the table are served as-is.
func Routes(source SessionSource, table access.Table) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, _, ok := table.Match(r.URL.Path)
			if !ok || route.Public {
				next.ServeHTTP(w, r)
				return
			}
			Protect(source, route.Require)(next).ServeHTTP(w, r)
		})
	}
}
