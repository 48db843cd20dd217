package webconsole

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"net/url"
	"time"

	consolenav "github.com/rmacdonaldsmith/railconsole/internal/navigation"
	"github.com/rmacdonaldsmith/railconsole/pkg/httpclient"
	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
)

// component is a component template as listed by the backend.
type component struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}

// vehicle is a railway vehicle inspection task as listed by the backend.
type vehicle struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Number    string    `json:"number"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"createdAt"`
}

// pageLoader fetches the data a page component shows.
type pageLoader func(ctx context.Context, client *httpclient.Client, loc navigation.Location) (any, error)

func defaultLoaders() map[string]pageLoader {
	return map[string]pageLoader{
		"pages/ComponentManager": func(ctx context.Context, client *httpclient.Client, _ navigation.Location) (any, error) {
			var out []component
			err := client.GetJSON(ctx, "/components", nil, &out, httpclient.Quiet())
			return out, err
		},
		"pages/ComponentTemplateImageManager": func(ctx context.Context, client *httpclient.Client, loc navigation.Location) (any, error) {
			var out component
			err := client.GetJSON(ctx, "/components/"+url.PathEscape(loc.Params["componentId"]), nil, &out, httpclient.Quiet())
			if err != nil {
				return nil, err
			}
			return out, nil
		},
		"pages/RailwayVehicleManager": func(ctx context.Context, client *httpclient.Client, _ navigation.Location) (any, error) {
			var out []vehicle
			err := client.GetJSON(ctx, "/railway-vehicles", nil, &out, httpclient.Quiet())
			return out, err
		},
	}
}

// pageView is the data of the layout template.
type pageView struct {
	Location navigation.Location
	LoggedIn bool
	Error    string
	Data     any
	Body     template.HTML
}

// handlePage renders the location the guard let through.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc, ok := consolenav.LocationFromContext(ctx)
	if !ok {
		http.NotFound(w, r)
		return
	}

	gate := s.gate(w, r)
	loggedIn, err := gate.IsLoggedIn(ctx)
	if err != nil {
		s.logger.Error("failed to read login state", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	view := pageView{Location: loc, LoggedIn: loggedIn}

	if load, ok := s.loaders[loc.Component]; ok && loggedIn {
		data, err := load(ctx, s.backend(r, gate.Token()), loc)
		if err != nil {
			if expired(err) {
				s.expireSession(w, r)
				return
			}
			view.Error = err.Error()
		}
		view.Data = data
	}

	s.render(w, view)
}

func (s *Server) render(w http.ResponseWriter, view pageView) {
	var body bytes.Buffer
	if s.templates.Lookup(view.Location.Component) != nil {
		if err := s.templates.ExecuteTemplate(&body, view.Location.Component, view); err != nil {
			s.logger.Error("failed to render page", "component", view.Location.Component, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}
	view.Body = template.HTML(body.String())

	var page bytes.Buffer
	if err := s.templates.ExecuteTemplate(&page, "layout", view); err != nil {
		s.logger.Error("failed to render layout", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = page.WriteTo(w)
}

// backend returns a client that notifies the request's session and carries token.
func (s *Server) backend(r *http.Request, token string) *httpclient.Client {
	client := s.config.Client.Notifying(s.dispatcher(r))
	client.SetToken(token)
	return client
}

// expired reports whether the backend rejected the session's token.
func expired(err error) bool {
	reqErr, ok := httpclient.AsRequestError(err)
	return ok && reqErr.StatusCode == http.StatusUnauthorized
}

// expireSession logs the session out and sends the browser to the login page.
func (s *Server) expireSession(w http.ResponseWriter, r *http.Request) {
	if err := s.gate(w, r).SetLoggedIn(r.Context(), false); err != nil {
		s.logger.Error("failed to clear login state", "error", err)
	}
	http.Redirect(w, r, s.config.Table.LoginPath(), http.StatusSeeOther)
}
