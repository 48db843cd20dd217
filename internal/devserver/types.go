package devserver

import "time"

// Request/Response types of the development backend

// Envelope wraps every JSON response
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Component is a managed component template
type Component struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ComponentRequest creates or updates a component
type ComponentRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// RailwayVehicle is a railway vehicle inspection task
type RailwayVehicle struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Number    string    `json:"number"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"createdAt"`
}

// HealthResponse represents the health status
type HealthResponse struct {
	Status     string `json:"status"`
	Components int    `json:"components"`
	Vehicles   int    `json:"vehicles"`
}
