package gateway

import (
	"crypto/subtle"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/soyeahso/backoffice/internal/config"
)

// Auth modes accepted in gateway.auth.mode.
const (
	AuthModeToken    = "token"
	AuthModePassword = "password"
)

// AuthResult is the outcome of checking a client's credentials.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Method string `json:"method,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func denied(reason string) AuthResult { return AuthResult{Reason: reason} }

// ResolvedAuth is the gateway auth after config and environment are merged.
type ResolvedAuth struct {
	Mode     string
	Token    string
	Password string
}

// secret returns the credential the server expects in its mode.
func (a ResolvedAuth) secret() string {
	if a.Mode == AuthModePassword {
		return a.Password
	}
	return a.Token
}

type authEnv struct {
	Token    string `env:"BACKOFFICE_GATEWAY_TOKEN"`
	Password string `env:"BACKOFFICE_GATEWAY_PASSWORD"`
}

// ResolveAuth merges gateway.auth with BACKOFFICE_GATEWAY_TOKEN and
// BACKOFFICE_GATEWAY_PASSWORD. Config values win. Without an explicit mode
// a configured password selects password mode.
func ResolveAuth(cfg config.GatewayAuth) ResolvedAuth {
	fromEnv, _ := env.ParseAs[authEnv]()

	auth := ResolvedAuth{Mode: cfg.Mode, Token: cfg.Token, Password: cfg.Password}
	if auth.Token == "" {
		auth.Token = fromEnv.Token
	}
	if auth.Password == "" {
		auth.Password = fromEnv.Password
	}
	if auth.Mode == "" {
		auth.Mode = AuthModeToken
		if auth.Password != "" {
			auth.Mode = AuthModePassword
		}
	}
	return auth
}

// Authorize checks connect credentials against the server's auth.
func Authorize(server ResolvedAuth, client *ConnectAuth) AuthResult {
	if client == nil {
		return denied("no credentials provided")
	}

	var given string
	switch server.Mode {
	case AuthModeToken:
		given = client.Token
	case AuthModePassword:
		given = client.Password
	default:
		return denied("unknown auth mode: " + server.Mode)
	}

	switch {
	case server.secret() == "":
		return denied("server " + server.Mode + " not configured")
	case given == "":
		return denied(server.Mode + " required")
	case !safeEqual(given, server.secret()):
		return denied(server.Mode + "_mismatch")
	}
	return AuthResult{OK: true, Method: server.Mode}
}

// AuthorizeBearer checks an "Authorization: Bearer <secret>" header. The
// secret is compared against the token or the password depending on mode.
func AuthorizeBearer(server ResolvedAuth, header string) AuthResult {
	scheme, secret, ok := strings.Cut(strings.TrimSpace(header), " ")
	secret = strings.TrimSpace(secret)
	if !ok || !strings.EqualFold(scheme, "Bearer") || secret == "" {
		return denied("bearer credentials required")
	}
	if server.Mode == AuthModePassword {
		return Authorize(server, &ConnectAuth{Password: secret})
	}
	return Authorize(server, &ConnectAuth{Token: secret})
}

// safeEqual compares in constant time, including the length check.
func safeEqual(a, b string) bool {
	sameLen := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	same := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(sameLen, same, 0) == 1
}
