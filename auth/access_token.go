package auth

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/fr0gg/fr0gg/internal/jwtauth"
)

// AccessTokenAuthOption configures optional aspects of the RFC 9068 access
// token authenticator (scopes, algorithms, leeway, extra audiences).
type AccessTokenAuthOption func(*jwtauth.Config)

// WithRequiredScopes requires all of the provided scopes to be present in the
// space-delimited "scope" claim.
func WithRequiredScopes(scopes ...string) AccessTokenAuthOption {
	return func(c *jwtauth.Config) {
		c.RequiredScopes = append([]string(nil), scopes...)
		c.ScopeModeAny = false
	}
}

// WithAnyRequiredScope requires at least one of the provided scopes to be present.
func WithAnyRequiredScope(scopes ...string) AccessTokenAuthOption {
	return func(c *jwtauth.Config) {
		c.RequiredScopes = append([]string(nil), scopes...)
		c.ScopeModeAny = true
	}
}

// WithAllowedAlgs restricts allowed JWS algorithms. "none" is never allowed.
// Defaults to ["RS256"].
func WithAllowedAlgs(algs ...string) AccessTokenAuthOption {
	return func(c *jwtauth.Config) {
		c.AllowedAlgs = append([]string(nil), algs...)
	}
}

// WithLeeway sets clock skew tolerance for time-based claims.
func WithLeeway(d time.Duration) AccessTokenAuthOption {
	return func(c *jwtauth.Config) { c.Leeway = d }
}

// WithAdditionalAudiences accepts tokens minted for other audiences as well,
// e.g. a localhost URL during development.
func WithAdditionalAudiences(auds ...string) AccessTokenAuthOption {
	return func(c *jwtauth.Config) {
		c.ExpectedAudiences = append(c.ExpectedAudiences, auds...)
	}
}

func buildConfig(issuer, audience string, opts []AccessTokenAuthOption) (*jwtauth.Config, error) {
	if audience == "" {
		return nil, errors.New("audience is required")
	}
	cfg := jwtauth.DefaultConfig()
	cfg.Issuer = issuer
	cfg.ExpectedAudiences = []string{audience}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, nil
}

// NewFromDiscovery returns an Authenticator that verifies RFC 9068 JWT access
// tokens discovered via OpenID Connect discovery (jwks_uri, issuer, etc.).
//
// Required:
//   - issuer:   authorization server issuer URL
//   - audience: expected audience ("aud") claim, typically the public gallery URL
func NewFromDiscovery(ctx context.Context, issuer string, audience string, opts ...AccessTokenAuthOption) (*AccessTokenAuthenticator, error) {
	cfg, err := buildConfig(issuer, audience, opts)
	if err != nil {
		return nil, err
	}
	internal, err := jwtauth.NewFromDiscovery(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &AccessTokenAuthenticator{a: internal, sec: securityFrom(cfg)}, nil
}

// NewStatic is like NewFromDiscovery but takes the JWKS URL directly and
// performs no discovery.
func NewStatic(ctx context.Context, issuer, audience, jwksURL string, opts ...AccessTokenAuthOption) (*AccessTokenAuthenticator, error) {
	cfg, err := buildConfig(issuer, audience, opts)
	if err != nil {
		return nil, err
	}
	internal, err := jwtauth.NewStatic(ctx, cfg, jwksURL)
	if err != nil {
		return nil, err
	}
	return &AccessTokenAuthenticator{a: internal, sec: securityFrom(cfg)}, nil
}

// AccessTokenAuthenticator is the Authenticator returned by NewFromDiscovery
// and NewStatic.
type AccessTokenAuthenticator struct {
	a   jwtauth.Authenticator
	sec SecurityConfig
}

var (
	_ Authenticator      = (*AccessTokenAuthenticator)(nil)
	_ SecurityDescriptor = (*AccessTokenAuthenticator)(nil)
)

func (ad *AccessTokenAuthenticator) CheckAuthentication(ctx context.Context, tok string) (UserInfo, error) {
	ui, err := ad.a.CheckAuthentication(ctx, tok)
	if err != nil {
		// Map internal sentinel errors to public errors used by the handler.
		if errors.Is(err, jwtauth.ErrInsufficientScope) {
			return nil, errors.Join(ErrInsufficientScope, err)
		}
		return nil, errors.Join(ErrUnauthorized, err)
	}
	return userInfoAdapter{ui: ui}, nil
}

// SecurityConfig describes the validation policy for advertisement.
func (ad *AccessTokenAuthenticator) SecurityConfig() SecurityConfig { return ad.sec.Copy() }

type userInfoAdapter struct{ ui jwtauth.UserInfo }

func (u userInfoAdapter) UserID() string       { return u.ui.UserID() }
func (u userInfoAdapter) Scopes() []string     { return u.ui.Scopes() }
func (u userInfoAdapter) Claims(ref any) error { return u.ui.Claims(ref) }

// SecurityConfig is the advertised view of an authenticator's policy. It
// feeds the OAuth protected resource metadata document (RFC 9728) and the
// scope hint in Bearer challenges.
type SecurityConfig struct {
	Issuer         string
	Audiences      []string
	RequiredScopes []string
	AllowedAlgs    []string
	Leeway         time.Duration
}

func securityFrom(cfg *jwtauth.Config) SecurityConfig {
	return SecurityConfig{
		Issuer:         cfg.Issuer,
		Audiences:      slices.Clone(cfg.ExpectedAudiences),
		RequiredScopes: slices.Clone(cfg.RequiredScopes),
		AllowedAlgs:    slices.Clone(cfg.AllowedAlgs),
		Leeway:         cfg.Leeway,
	}
}

// Copy returns a deep copy safe for mutation by the caller.
func (c SecurityConfig) Copy() SecurityConfig {
	dup := c
	dup.Audiences = slices.Clone(c.Audiences)
	dup.RequiredScopes = slices.Clone(c.RequiredScopes)
	dup.AllowedAlgs = slices.Clone(c.AllowedAlgs)
	return dup
}

// SecurityDescriptor exposes security configuration for transports to advertise.
type SecurityDescriptor interface{ SecurityConfig() SecurityConfig }

// ProtectedResourceMetadata is the RFC 9728 document describing how to obtain
// a token for this resource.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
}

// Metadata returns the protected resource metadata for c. The primary
// audience names the resource.
func (c SecurityConfig) Metadata() ProtectedResourceMetadata {
	m := ProtectedResourceMetadata{
		AuthorizationServers:   []string{c.Issuer},
		ScopesSupported:        slices.Clone(c.RequiredScopes),
		BearerMethodsSupported: []string{"header"},
	}
	if len(c.Audiences) > 0 {
		m.Resource = c.Audiences[0]
	}
	return m
}
