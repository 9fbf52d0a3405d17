package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "missing", wantErr: ErrNoToken},
		{name: "bearer", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer tok", want: "tok"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrInvalidRequest},
		{name: "no token", header: "Bearer ", wantErr: ErrInvalidRequest},
		{name: "scheme only", header: "Bearer", wantErr: ErrInvalidRequest},
		{name: "two tokens", header: "Bearer a b", wantErr: ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/frogs", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := BearerToken(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("BearerToken() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("BearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChallengeFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantHeader string
	}{
		{
			name:       "no token",
			err:        ErrNoToken,
			wantStatus: http.StatusUnauthorized,
			wantHeader: `Bearer realm="fr0gg", scope="frogs:publish"`,
		},
		{
			name:       "malformed header",
			err:        ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
			wantHeader: `Bearer realm="fr0gg", error="invalid_request", error_description="Invalid Authorization header"`,
		},
		{
			name:       "insufficient scope",
			err:        errors.Join(ErrInsufficientScope, errors.New("missing frogs:publish")),
			wantStatus: http.StatusForbidden,
			wantHeader: `Bearer realm="fr0gg", error="insufficient_scope", scope="frogs:publish"`,
		},
		{
			name:       "invalid token",
			err:        errors.Join(ErrUnauthorized, errors.New("expired")),
			wantStatus: http.StatusUnauthorized,
			wantHeader: `Bearer realm="fr0gg", error="invalid_token", error_description="The access token is invalid"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChallengeFor(tt.err, "fr0gg", PublishScope)
			if got.Status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", got.Status, tt.wantStatus)
			}
			if got.WWWAuthenticate != tt.wantHeader {
				t.Fatalf("header =\n%s\nwant\n%s", got.WWWAuthenticate, tt.wantHeader)
			}
		})
	}
}

func TestChallengeFor_QuotesRealm(t *testing.T) {
	got := ChallengeFor(ErrNoToken, `a "quoted" realm`, "")
	want := `Bearer realm="a \"quoted\" realm"`
	if got.WWWAuthenticate != want {
		t.Fatalf("header = %s, want %s", got.WWWAuthenticate, want)
	}
}
