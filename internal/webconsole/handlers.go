package webconsole

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rmacdonaldsmith/railconsole/pkg/httpclient"
	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

const maxUploadBytes = 32 << 20

// handleLogin handles POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	client := s.config.Client.Notifying(s.dispatcher(r))
	resp, err := client.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		// The pipeline has already notified the session
		s.logger.Info("login failed", "error", err)
		http.Redirect(w, r, s.config.Table.LoginPath(), http.StatusSeeOther)
		return
	}

	if err := s.gate(w, r).Login(resp.Token); err != nil {
		s.logger.Error("failed to record login", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.logger.Info("user logged in", "username", resp.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout handles POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.gate(w, r).SetLoggedIn(r.Context(), false); err != nil {
		s.logger.Error("failed to clear login state", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.dispatcher(r).Dispatch(notify.New(notify.LevelInfo, "Logged out", "", httpclient.DefaultSuccessDuration))
	http.Redirect(w, r, s.config.Table.LoginPath(), http.StatusSeeOther)
}

// handleCreateComponent handles POST /components from the component page form
func (s *Server) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	client, ok := s.authorized(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	in := map[string]string{
		"name":        strings.TrimSpace(r.PostForm.Get("name")),
		"code":        strings.TrimSpace(r.PostForm.Get("code")),
		"description": strings.TrimSpace(r.PostForm.Get("description")),
	}
	if err := client.PostJSON(r.Context(), "/components", in, nil); err != nil && expired(err) {
		s.expireSession(w, r)
		return
	}
	http.Redirect(w, r, "/component-manage", http.StatusSeeOther)
}

// handleDeleteComponent handles POST /components/{id}/delete
func (s *Server) handleDeleteComponent(w http.ResponseWriter, r *http.Request) {
	client, ok := s.authorized(w, r)
	if !ok {
		return
	}

	path := "/components/" + url.PathEscape(chi.URLParam(r, "id"))
	if err := client.Delete(r.Context(), path, nil); err != nil && expired(err) {
		s.expireSession(w, r)
		return
	}
	http.Redirect(w, r, "/component-manage", http.StatusSeeOther)
}

// handleUploadVehicle handles POST /railway-vehicles by forwarding the
// browser's multipart form to the backend.
func (s *Server) handleUploadVehicle(w http.ResponseWriter, r *http.Request) {
	client, ok := s.authorized(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	form := &httpclient.MultipartForm{}
	form.AddField("model", r.FormValue("model")).AddField("number", r.FormValue("number"))
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		defer f.Close()
		form.AddFile("images", fh.Filename, f)
	}

	if err := client.Upload(r.Context(), "/railway-vehicles", form, nil); err != nil && expired(err) {
		s.expireSession(w, r)
		return
	}
	http.Redirect(w, r, "/railway-train-manage", http.StatusSeeOther)
}

// authorized returns a backend client for a logged-in session. Otherwise it
// notifies the session, redirects to the login page and returns false.
func (s *Server) authorized(w http.ResponseWriter, r *http.Request) (*httpclient.Client, bool) {
	gate := s.gate(w, r)
	loggedIn, err := gate.IsLoggedIn(r.Context())
	if err != nil {
		s.logger.Error("failed to read login state", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	if !loggedIn {
		s.dispatcher(r).Dispatch(s.guard.LoginRequired())
		http.Redirect(w, r, s.config.Table.LoginPath(), http.StatusSeeOther)
		return nil, false
	}
	return s.backend(r, gate.Token()), true
}
