package webconsole

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rmacdonaldsmith/railconsole/internal/authgate"
	"github.com/rmacdonaldsmith/railconsole/internal/loading"
	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
)

type contextKey string

const sessionIDKey contextKey = "webconsole.session_id"

// withSession makes sure the browser carries a session ID, which selects
// its notification stream.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(r, authgate.SessionName)
		if sess == nil {
			s.logger.Error("failed to load session", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if err != nil {
			// Undecodable cookie: continue with the fresh session
			s.logger.Debug("replacing invalid session cookie", "error", err)
		}

		sid, _ := sess.Values[authgate.SessionIDKey].(string)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[authgate.SessionIDKey] = sid
			if err := sess.Save(r, w); err != nil {
				s.logger.Error("failed to save session", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey, sid)))
	})
}

func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(sessionIDKey).(string)
	return sid
}

func (s *Server) gate(w http.ResponseWriter, r *http.Request) *authgate.SessionGate {
	return authgate.NewSessionGate(s.sessions, w, r)
}

// navigationEnv builds the guard collaborators for one page request.
func (s *Server) navigationEnv(w http.ResponseWriter, r *http.Request) (navigation.Env, error) {
	d := s.dispatcher(r)
	return navigation.Env{
		Gate:     s.gate(w, r),
		Loader:   loading.New(d),
		Notifier: d,
	}, nil
}
