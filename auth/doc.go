// Package auth verifies the bearer tokens that guard publishing to the
// gallery. Tokens are RFC 9068 JWT access tokens issued by an external
// OAuth 2.0 / OIDC authorization server.
//
// An Authenticator validates a token string and returns a UserInfo or an
// error. The HTTP layer extracts the token with BearerToken and turns errors
// into RFC 6750 challenges with ChallengeFor.
//
// # Access Token Authentication
//
// NewFromDiscovery locates the issuer's JWKS through OpenID Connect
// discovery; NewStatic takes the JWKS URL directly. Keys are refreshed in the
// background until the constructor's context is done.
//
// Example:
//
//	authn, err := auth.NewFromDiscovery(ctx, "https://issuer.example", "https://fr0.gg/frogs",
//	    auth.WithRequiredScopes(auth.PublishScope),
//	)
//	if err != nil { log.Fatal(err) }
//
// # Scopes
//
// WithRequiredScopes enforces that all provided scopes are present in the
// token's space-delimited scope claim; WithAnyRequiredScope relaxes this so
// at least one matches. The last of the two options applied wins.
//
// Algorithms & Clock Skew
//
// By default only RS256 is accepted. Use WithAllowedAlgs to broaden the set.
// WithLeeway adds tolerance for clock skew when validating exp/iat/nbf.
//
// # Errors
//
// ErrUnauthorized signals the token is invalid (signature, expiry, audience,
// etc.). ErrInsufficientScope signals successful authentication but missing
// required scope(s).
package auth
