package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rmacdonaldsmith/railconsole/pkg/httpclient"
)

// maxUploadBytes bounds multipart request bodies
const maxUploadBytes = 32 << 20

// Credentials is the single account the backend accepts
type Credentials struct {
	Username string
	Password string
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	catalog     *Catalog
	tokens      *Tokens
	credentials Credentials
	logger      *slog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(catalog *Catalog, tokens *Tokens, credentials Credentials, logger *slog.Logger) *Handlers {
	return &Handlers{
		catalog:     catalog,
		tokens:      tokens,
		credentials: credentials,
		logger:      logger,
	}
}

// Auth endpoints

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := validateJSON(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	var fields httpclient.FieldErrors
	if req.Username == "" {
		fields = append(fields, httpclient.FieldError{Key: "username", Message: "Username is required"})
	}
	if req.Password == "" {
		fields = append(fields, httpclient.FieldError{Key: "password", Message: "Password is required"})
	}
	if len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "Validation failed", fields)
		return
	}

	if req.Username != h.credentials.Username || req.Password != h.credentials.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	grant, err := h.tokens.Grant(req.Username)
	if err != nil {
		h.logger.Error("token grant failed", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate token", nil)
		return
	}

	h.logger.Info("user logged in", "username", req.Username, "expires_at", grant.ExpiresAt)
	writeOK(w, "Login successful", LoginResponse{
		Token:     grant.Token,
		Username:  req.Username,
		ExpiresAt: grant.ExpiresAt,
	})
}

// Component endpoints

// ListComponents handles GET /api/v1/components
func (h *Handlers) ListComponents(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "", h.catalog.Components())
}

// CreateComponent handles POST /api/v1/components.
// Invalid input fails with HTTP 400 and ordered field errors; a duplicate
// code fails inside a 200 response with envelope code 409.
func (h *Handlers) CreateComponent(w http.ResponseWriter, r *http.Request) {
	if err := validateJSON(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var req ComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)

	if fields := validateComponent(req); len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "Validation failed", fields)
		return
	}

	if h.catalog.HasComponentCode(req.Code) {
		writeJSON(w, http.StatusOK, Envelope{
			Code:    http.StatusConflict,
			Message: "Component code already exists",
			Data:    httpclient.FieldErrors{{Key: "code", Message: fmt.Sprintf("%s is taken", req.Code)}},
		})
		return
	}

	comp := h.catalog.AddComponent(req)
	h.logger.Info("component created", "id", comp.ID, "code", comp.Code, "user", username(r))
	writeOK(w, "Component created", comp)
}

// GetComponent handles GET /api/v1/components/{id}
func (h *Handlers) GetComponent(w http.ResponseWriter, r *http.Request) {
	comp, err := h.catalog.Component(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Component not found", nil)
		return
	}
	writeOK(w, "", comp)
}

// DeleteComponent handles DELETE /api/v1/components/{id}
func (h *Handlers) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.catalog.DeleteComponent(id); err != nil {
		writeError(w, http.StatusNotFound, "Component not found", nil)
		return
	}
	h.logger.Info("component deleted", "id", id, "user", username(r))
	writeOK(w, "Component deleted", nil)
}

// ExportComponent handles GET /api/v1/components/{id}/export.
// Failures are written as octet-stream so clients asking for a blob receive
// the error envelope as binary.
func (h *Handlers) ExportComponent(w http.ResponseWriter, r *http.Request) {
	comp, err := h.catalog.Component(chi.URLParam(r, "id"))
	if err != nil {
		writeBinaryError(w, http.StatusNotFound, "Component not found")
		return
	}

	data, err := json.MarshalIndent(comp, "", "  ")
	if err != nil {
		writeBinaryError(w, http.StatusInternalServerError, "Failed to export component")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": comp.Code + ".json",
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Railway vehicle endpoints

// ListVehicles handles GET /api/v1/railway-vehicles
func (h *Handlers) ListVehicles(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "", h.catalog.Vehicles())
}

// CreateVehicle handles POST /api/v1/railway-vehicles as a multipart form
// with model and number fields plus any number of "images" files.
func (h *Handlers) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", nil)
		return
	}

	model := strings.TrimSpace(r.FormValue("model"))
	number := strings.TrimSpace(r.FormValue("number"))

	var fields httpclient.FieldErrors
	if model == "" {
		fields = append(fields, httpclient.FieldError{Key: "model", Message: "Model is required"})
	}
	if number == "" {
		fields = append(fields, httpclient.FieldError{Key: "number", Message: "Number is required"})
	}
	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		fields = append(fields, httpclient.FieldError{Key: "images", Message: "At least one image is required"})
	}
	if len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "Validation failed", fields)
		return
	}

	images := make(map[string][]byte, len(headers))
	order := make([]string, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read "+fh.Filename, nil)
			return
		}
		images[fh.Filename] = data
		order = append(order, fh.Filename)
	}

	v := h.catalog.AddVehicle(model, number, images, order)
	h.logger.Info("railway vehicle created", "id", v.ID, "images", len(order))
	writeOK(w, "Railway vehicle created", v)
}

// Health handles GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	components, vehicles := h.catalog.Counts()
	writeOK(w, "", HealthResponse{
		Status:     "ok",
		Components: components,
		Vehicles:   vehicles,
	})
}

// NotFound answers unknown API paths with an envelope
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "No such endpoint: "+r.URL.Path, nil)
}

// Helper functions

func username(r *http.Request) string {
	if op := OperatorFrom(r); op != nil {
		return op.Username
	}
	return ""
}

func validateJSON(r *http.Request) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.New("Content-Type must be application/json")
	}
	return nil
}

func validateComponent(req ComponentRequest) httpclient.FieldErrors {
	var fields httpclient.FieldErrors
	if req.Name == "" {
		fields = append(fields, httpclient.FieldError{Key: "name", Message: "Name is required"})
	}
	switch {
	case req.Code == "":
		fields = append(fields, httpclient.FieldError{Key: "code", Message: "Code is required"})
	case len(req.Code) < 2:
		fields = append(fields, httpclient.FieldError{Key: "code", Message: "Code must be at least 2 characters"})
	}
	return fields
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeBinaryError(w http.ResponseWriter, statusCode int, message string) {
	data, _ := json.Marshal(Envelope{Code: statusCode, Message: message})
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(statusCode)
	_, _ = w.Write(data)
}
