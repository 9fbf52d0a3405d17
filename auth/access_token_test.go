package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

const testAud = "https://fr0.gg/frogs"

func newJWKS(t *testing.T) (*rsa.PrivateKey, *httptest.Server) {
	t.Helper()
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	set := struct {
		Keys []jose.JSONWebKey `json:"keys"`
	}{Keys: []jose.JSONWebKey{{Key: &pk.PublicKey, KeyID: "k1", Algorithm: "RS256", Use: "sig"}}}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return pk, srv
}

func sign(t *testing.T, pk *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "k1"
	tok.Header["typ"] = "at+jwt"
	s, err := tok.SignedString(pk)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestNewStatic_ErrorMapping(t *testing.T) {
	pk, srv := newJWKS(t)
	issuer := "https://issuer.example"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := NewStatic(ctx, issuer, testAud, srv.URL, WithRequiredScopes(PublishScope), WithLeeway(0))
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}

	claims := func(scope string) jwt.MapClaims {
		return jwt.MapClaims{
			"iss":   issuer,
			"sub":   "frog-keeper",
			"aud":   testAud,
			"exp":   time.Now().Add(time.Hour).Unix(),
			"scope": scope,
		}
	}

	ui, err := a.CheckAuthentication(ctx, sign(t, pk, claims("frogs:publish")))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ui.UserID() != "frog-keeper" {
		t.Fatalf("UserID = %q", ui.UserID())
	}

	_, err = a.CheckAuthentication(ctx, sign(t, pk, claims("frogs:read")))
	if !errors.Is(err, ErrInsufficientScope) {
		t.Fatalf("want ErrInsufficientScope, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatalf("insufficient scope must not also be unauthorized: %v", err)
	}

	_, err = a.CheckAuthentication(ctx, "garbage")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestNewStatic_AdditionalAudiences(t *testing.T) {
	pk, srv := newJWKS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := NewStatic(ctx, "https://issuer.example", testAud, srv.URL, WithAdditionalAudiences("http://localhost:8080/frogs"))
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	tok := sign(t, pk, jwt.MapClaims{
		"iss": "https://issuer.example",
		"sub": "dev",
		"aud": "http://localhost:8080/frogs",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := a.CheckAuthentication(ctx, tok); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestNewStatic_RequiresAudience(t *testing.T) {
	if _, err := NewStatic(context.Background(), "https://issuer.example", "", "https://issuer.example/keys"); err == nil {
		t.Fatalf("NewStatic accepted an empty audience")
	}
}

func TestSecurityConfig_Metadata(t *testing.T) {
	_, srv := newJWKS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := NewStatic(ctx, "https://issuer.example", testAud, srv.URL, WithRequiredScopes(PublishScope))
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}

	sec := a.SecurityConfig()
	sec.Audiences[0] = "mutated"
	if a.SecurityConfig().Audiences[0] != testAud {
		t.Fatalf("SecurityConfig returned shared storage")
	}

	m := a.SecurityConfig().Metadata()
	if m.Resource != testAud {
		t.Fatalf("Resource = %q", m.Resource)
	}
	if len(m.AuthorizationServers) != 1 || m.AuthorizationServers[0] != "https://issuer.example" {
		t.Fatalf("AuthorizationServers = %v", m.AuthorizationServers)
	}
	if len(m.ScopesSupported) != 1 || m.ScopesSupported[0] != PublishScope {
		t.Fatalf("ScopesSupported = %v", m.ScopesSupported)
	}
}

func TestUserInfoContext(t *testing.T) {
	if _, ok := UserInfoFromContext(context.Background()); ok {
		t.Fatalf("empty context reported a user")
	}
	ui := userInfoAdapter{}
	ctx := WithUserInfo(context.Background(), ui)
	if _, ok := UserInfoFromContext(ctx); !ok {
		t.Fatalf("user not found in context")
	}
}
