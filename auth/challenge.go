package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidRequest indicates a malformed Authorization header.
var ErrInvalidRequest = errors.New("invalid authorization header")

// ErrNoToken indicates the request carried no credentials at all.
var ErrNoToken = errors.New("no bearer token")

// BearerToken extracts the token from an "Authorization: Bearer" header.
// A missing header yields ErrNoToken; any other scheme or an empty token
// yields ErrInvalidRequest.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrNoToken
	}
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidRequest
	}
	tok = strings.TrimSpace(tok)
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", ErrInvalidRequest
	}
	return tok, nil
}

// Challenge describes an HTTP challenge (status + WWW-Authenticate header).
type Challenge struct {
	Status          int
	WWWAuthenticate string
}

// ChallengeFor maps an error from BearerToken or CheckAuthentication to the
// RFC 6750 response. scope is advertised when non-empty.
func ChallengeFor(err error, realm, scope string) Challenge {
	params := []string{param("realm", realm)}
	switch {
	case errors.Is(err, ErrNoToken):
		// RFC 6750 3.1: no error code when the request lacked credentials.
		if scope != "" {
			params = append(params, param("scope", scope))
		}
		return Challenge{Status: http.StatusUnauthorized, WWWAuthenticate: bearer(params)}
	case errors.Is(err, ErrInvalidRequest):
		params = append(params, param("error", "invalid_request"), param("error_description", "Invalid Authorization header"))
		return Challenge{Status: http.StatusBadRequest, WWWAuthenticate: bearer(params)}
	case errors.Is(err, ErrInsufficientScope):
		params = append(params, param("error", "insufficient_scope"))
		if scope != "" {
			params = append(params, param("scope", scope))
		}
		return Challenge{Status: http.StatusForbidden, WWWAuthenticate: bearer(params)}
	default:
		params = append(params, param("error", "invalid_token"), param("error_description", "The access token is invalid"))
		return Challenge{Status: http.StatusUnauthorized, WWWAuthenticate: bearer(params)}
	}
}

func bearer(params []string) string {
	return "Bearer " + strings.Join(params, ", ")
}

// param renders a quoted-string auth-param.
func param(k, v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return fmt.Sprintf(`%s="%s"`, k, v)
}
