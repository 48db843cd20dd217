package authgate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
)

// TokenKey is the storage key of the backend token.
const TokenKey = "token"

// StoreGate is a navigation.AuthGate over client storage. Every read goes to
// the store.
type StoreGate struct {
	store Store
}

var _ navigation.AuthGate = (*StoreGate)(nil)

// NewStoreGate creates a gate over store.
func NewStoreGate(store Store) *StoreGate {
	return &StoreGate{store: store}
}

func (g *StoreGate) IsLoggedIn(ctx context.Context) (bool, error) {
	v, ok, err := g.store.Get(ctx, navigation.LoggedInKey)
	if err != nil {
		return false, fmt.Errorf("failed to read login state: %w", err)
	}
	return ok && v == "true", nil
}

func (g *StoreGate) SetLoggedIn(ctx context.Context, loggedIn bool) error {
	if err := g.store.Set(ctx, navigation.LoggedInKey, strconv.FormatBool(loggedIn)); err != nil {
		return fmt.Errorf("failed to write login state: %w", err)
	}
	return nil
}

// Token returns the stored backend token, or "" when there is none.
func (g *StoreGate) Token(ctx context.Context) (string, error) {
	v, _, err := g.store.Get(ctx, TokenKey)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return v, nil
}

// SetToken stores the backend token.
func (g *StoreGate) SetToken(ctx context.Context, token string) error {
	if err := g.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Login records a successful login and its token.
func (g *StoreGate) Login(ctx context.Context, token string) error {
	if err := g.SetToken(ctx, token); err != nil {
		return err
	}
	return g.SetLoggedIn(ctx, true)
}

// Logout clears the flag and forgets the token.
func (g *StoreGate) Logout(ctx context.Context) error {
	if err := g.SetLoggedIn(ctx, false); err != nil {
		return err
	}
	if err := g.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
