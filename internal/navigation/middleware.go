package navigation

import (
	"context"
	"errors"
	"net/http"

	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
)

type contextKey string

const locationKey contextKey = "navigation.location"

// LocationFromContext returns the location the guard let the request through to.
func LocationFromContext(ctx context.Context) (navigation.Location, bool) {
	loc, ok := ctx.Value(locationKey).(navigation.Location)
	return loc, ok
}

// EnvFunc builds the navigation collaborators for one request.
type EnvFunc func(w http.ResponseWriter, r *http.Request) (navigation.Env, error)

// Middleware gates page requests through the guard. Refused requests are
// redirected to the login path, requests that resolved through a redirect
// rule are redirected to the resolved path, and the rest reach next with
// their Location in the context.
func (g *Guard) Middleware(envFor EnvFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env, err := envFor(w, r)
			if err != nil {
				g.config.Logger.Error("failed to build navigation env", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			// Once next runs it owns the response
			served := false
			_, err = g.Navigate(r.Context(), env, r.URL.Path, func(ctx context.Context, d navigation.Decision) error {
				switch {
				case d.Redirected():
					http.Redirect(w, r, d.Target.Path, http.StatusFound)
				case d.Target.Path != navigation.CleanPath(r.URL.Path):
					http.Redirect(w, r, d.Target.Path, http.StatusFound)
				default:
					served = true
					next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, locationKey, d.Target)))
				}
				return nil
			})
			switch {
			case err == nil:
			case served:
				g.config.Logger.Error("page handler failed", "path", r.URL.Path, "error", err)
			case errors.Is(err, navigation.ErrRouteNotFound):
				http.NotFound(w, r)
			default:
				g.config.Logger.Error("navigation failed", "path", r.URL.Path, "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		})
	}
}
