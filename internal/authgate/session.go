package authgate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
)

// SessionName is the cookie session holding the console state.
const SessionName = "railconsole"

// SessionIDKey is the session value identifying the browser session.
const SessionIDKey = "sid"

// SessionGate is a navigation.AuthGate over the cookie session of one HTTP
// request. SetLoggedIn saves the cookie immediately, so it must run before
// the response is written.
type SessionGate struct {
	store sessions.Store
	w     http.ResponseWriter
	r     *http.Request
}

var _ navigation.AuthGate = (*SessionGate)(nil)

// NewSessionGate creates a gate for one request/response pair.
func NewSessionGate(store sessions.Store, w http.ResponseWriter, r *http.Request) *SessionGate {
	return &SessionGate{store: store, w: w, r: r}
}

// session returns the request's session. A cookie that fails to decode
// yields a fresh session, which reads as logged out.
func (g *SessionGate) session() (*sessions.Session, error) {
	sess, err := g.store.Get(g.r, SessionName)
	if sess == nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

func (g *SessionGate) IsLoggedIn(_ context.Context) (bool, error) {
	sess, err := g.session()
	if err != nil {
		return false, err
	}
	loggedIn, _ := sess.Values[navigation.LoggedInKey].(bool)
	return loggedIn, nil
}

func (g *SessionGate) SetLoggedIn(_ context.Context, loggedIn bool) error {
	sess, err := g.session()
	if err != nil {
		return err
	}
	sess.Values[navigation.LoggedInKey] = loggedIn
	if !loggedIn {
		delete(sess.Values, TokenKey)
	}
	if err := sess.Save(g.r, g.w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Token returns the backend token kept in the session.
func (g *SessionGate) Token() string {
	sess, err := g.session()
	if err != nil {
		return ""
	}
	token, _ := sess.Values[TokenKey].(string)
	return token
}

// Login records a successful login and its token in one save.
func (g *SessionGate) Login(token string) error {
	sess, err := g.session()
	if err != nil {
		return err
	}
	sess.Values[navigation.LoggedInKey] = true
	sess.Values[TokenKey] = token
	if err := sess.Save(g.r, g.w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
