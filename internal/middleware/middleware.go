package middleware

import (
	"net/http"

	"storefront/internal/session"
	"storefront/internal/utils"
)

// SessionVerifier is the slice of the session store the guard needs.
type SessionVerifier interface {
	Verify(token string, expectedClass session.Class) bool
	Fetch(token string) (*session.Data, error)
}

// RequireSession gates every protected route on a valid session of the given
// class. A failed check redirects to that class's login page instead of
// raising a hard error; handlers past the guard can rely on the user id
// being present in the request context.
func RequireSession(sessions SessionVerifier, class session.Class, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(class.CookieName())
			if err != nil {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			if !sessions.Verify(cookie.Value, class) {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			data, err := sessions.Fetch(cookie.Value)
			if err != nil || data == nil {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			ctx := utils.WithUserID(r.Context(), data.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var allowed = map[string]struct{}{
	"http://localhost:5173": {},
	"http://localhost:5174": {},
	"http://localhost:3000": {},
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
