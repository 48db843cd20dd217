package httpclient

import (
	"time"
)

// Default values applied by Config.SetDefaults
const (
	DefaultTimeout         = 30 * time.Second
	DefaultSuccessCode     = 200
	DefaultLoadingDuration = 1 * time.Second
	DefaultSuccessDuration = 1 * time.Second
	DefaultErrorDuration   = 3 * time.Second
	DefaultErrorMessage    = "Operation failed"
	DefaultLoadingMessage  = "Request in progress..."
	DefaultSuccessMessage  = "Request succeeded"
	DefaultNotifyOnSuccess = true
	defaultUserAgent       = "railconsole-httpclient"
)

// Config holds client configuration
type Config struct {
	// BaseURL is the single base address every request targets,
	// including the API version prefix (e.g., "http://localhost:8082/api/v1")
	BaseURL string

	// Headers are sent with every request; per-request headers win
	Headers map[string]string

	// Timeout for HTTP requests
	Timeout time.Duration

	// NotifyOnSuccess emits a success notification for successful JSON
	// envelopes. nil means DefaultNotifyOnSuccess.
	NotifyOnSuccess *bool

	// SuccessCode is the envelope code that marks a semantically successful call
	SuccessCode int

	// Notification durations
	LoadingDuration time.Duration
	SuccessDuration time.Duration
	ErrorDuration   time.Duration

	// Notification texts
	LoadingMessage      string
	SuccessMessage      string
	DefaultErrorMessage string
}

// SetDefaults sets reasonable default values for the config
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SuccessCode == 0 {
		c.SuccessCode = DefaultSuccessCode
	}
	if c.NotifyOnSuccess == nil {
		c.NotifyOnSuccess = Bool(DefaultNotifyOnSuccess)
	}
	if c.LoadingDuration == 0 {
		c.LoadingDuration = DefaultLoadingDuration
	}
	if c.SuccessDuration == 0 {
		c.SuccessDuration = DefaultSuccessDuration
	}
	if c.ErrorDuration == 0 {
		c.ErrorDuration = DefaultErrorDuration
	}
	if c.LoadingMessage == "" {
		c.LoadingMessage = DefaultLoadingMessage
	}
	if c.SuccessMessage == "" {
		c.SuccessMessage = DefaultSuccessMessage
	}
	if c.DefaultErrorMessage == "" {
		c.DefaultErrorMessage = DefaultErrorMessage
	}
}

// Bool returns a pointer to b, for optional config fields.
func Bool(b bool) *bool {
	return &b
}

// LoginRequest is the body of the login call
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the payload returned by a successful login
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}
