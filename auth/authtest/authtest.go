// Package authtest provides an in-memory Authenticator for tests.
package authtest

import (
	"context"
	"fmt"
	"slices"

	"github.com/fr0gg/fr0gg/auth"
)

// User is a principal issued a token by Tokens.
type User struct {
	ID      string
	Granted []string
}

func (u User) UserID() string       { return u.ID }
func (u User) Scopes() []string     { return slices.Clone(u.Granted) }
func (u User) Claims(ref any) error { return nil }

// Tokens maps opaque bearer tokens to users. Unknown tokens yield
// auth.ErrUnauthorized; users missing any of Security.RequiredScopes yield
// auth.ErrInsufficientScope.
type Tokens struct {
	Users    map[string]User
	Security auth.SecurityConfig
}

var (
	_ auth.Authenticator      = (*Tokens)(nil)
	_ auth.SecurityDescriptor = (*Tokens)(nil)
)

// New returns a Tokens authenticator requiring scopes, advertised with a
// fixed test issuer and audience.
func New(users map[string]User, scopes ...string) *Tokens {
	return &Tokens{
		Users: users,
		Security: auth.SecurityConfig{
			Issuer:         "https://issuer.test",
			Audiences:      []string{"https://fr0gg.test"},
			RequiredScopes: scopes,
			AllowedAlgs:    []string{"RS256"},
		},
	}
}

func (t *Tokens) CheckAuthentication(ctx context.Context, tok string) (auth.UserInfo, error) {
	u, ok := t.Users[tok]
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	for _, s := range t.Security.RequiredScopes {
		if !slices.Contains(u.Granted, s) {
			return nil, fmt.Errorf("%w: missing %s", auth.ErrInsufficientScope, s)
		}
	}
	return u, nil
}

func (t *Tokens) SecurityConfig() auth.SecurityConfig { return t.Security.Copy() }
