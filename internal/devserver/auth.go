package devserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = 24 * time.Hour
	tokenIssuer     = "railconsole-devserver"
)

// ErrBadToken is returned for a bearer token the backend did not sign,
// or signed but no longer honours.
var ErrBadToken = errors.New("bad token")

// Operator is the console user a bearer token was granted to.
type Operator struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Grant is a freshly signed bearer token.
type Grant struct {
	Token     string
	ExpiresAt time.Time
}

// Tokens grants HS256 bearer tokens at login and resolves them back to the
// operator on protected routes.
type Tokens struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokens creates a token authority. A non-positive ttl means one day.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	t := &Tokens{key: []byte(secret), ttl: ttl, now: time.Now}
	t.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return t.now() }),
	)
	return t
}

// Grant signs a token for username.
func (t *Tokens) Grant(username string) (Grant, error) {
	if username == "" {
		return Grant{}, errors.New("grant needs a username")
	}

	issued := t.now()
	expires := issued.Add(t.ttl)
	op := Operator{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, op).SignedString(t.key)
	if err != nil {
		return Grant{}, fmt.Errorf("sign token for %s: %w", username, err)
	}
	return Grant{Token: signed, ExpiresAt: expires}, nil
}

// Operator resolves an Authorization header value, with or without the
// Bearer scheme, to the operator it was granted to.
func (t *Tokens) Operator(authorization string) (*Operator, error) {
	raw := strings.TrimSpace(authorization)
	if scheme, rest, ok := strings.Cut(raw, " "); ok && strings.EqualFold(scheme, "Bearer") {
		raw = strings.TrimSpace(rest)
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadToken)
	}

	var op Operator
	if _, err := t.parser.ParseWithClaims(raw, &op, func(*jwt.Token) (any, error) {
		return t.key, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadToken, err)
	}
	return &op, nil
}
