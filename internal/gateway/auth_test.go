package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/soyeahso/backoffice/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestSafeEqual(t *testing.T) {
	assert.True(t, safeEqual("secret", "secret"))
	assert.True(t, safeEqual("", ""))
	assert.False(t, safeEqual("secret", "wrong"))
	assert.False(t, safeEqual("short", "longer-string"))
	assert.False(t, safeEqual("secret", ""))
	assert.False(t, safeEqual("", "secret"))
}

// --- ResolveAuth ---

func TestResolveAuth_FromConfig(t *testing.T) {
	auth := ResolveAuth(config.GatewayAuth{Mode: "token", Token: "config-token"})
	assert.Equal(t, "token", auth.Mode)
	assert.Equal(t, "config-token", auth.Token)

	auth = ResolveAuth(config.GatewayAuth{Mode: "password", Password: "config-pass"})
	assert.Equal(t, "password", auth.Mode)
	assert.Equal(t, "config-pass", auth.Password)
}

func TestResolveAuth_ModeDefaults(t *testing.T) {
	assert.Equal(t, "token", ResolveAuth(config.GatewayAuth{Token: "t"}).Mode)
	assert.Equal(t, "password", ResolveAuth(config.GatewayAuth{Password: "p"}).Mode)
}

func TestResolveAuth_Env(t *testing.T) {
	t.Setenv("BACKOFFICE_GATEWAY_TOKEN", "env-token")
	t.Setenv("BACKOFFICE_GATEWAY_PASSWORD", "env-pass")

	auth := ResolveAuth(config.GatewayAuth{Mode: "token"})
	assert.Equal(t, "env-token", auth.Token)
	assert.Equal(t, "env-pass", auth.Password)

	auth = ResolveAuth(config.GatewayAuth{Mode: "token", Token: "config-token"})
	assert.Equal(t, "config-token", auth.Token, "config wins over env")
}

// --- Authorize ---

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		server ResolvedAuth
		client *ConnectAuth
		ok     bool
		method string
		reason string
	}{
		{"token ok", ResolvedAuth{Mode: "token", Token: "secret"}, &ConnectAuth{Token: "secret"}, true, "token", ""},
		{"token mismatch", ResolvedAuth{Mode: "token", Token: "secret"}, &ConnectAuth{Token: "wrong"}, false, "", "token_mismatch"},
		{"token empty", ResolvedAuth{Mode: "token", Token: "secret"}, &ConnectAuth{}, false, "", "token required"},
		{"server token missing", ResolvedAuth{Mode: "token"}, &ConnectAuth{Token: "x"}, false, "", "server token not configured"},
		{"password ok", ResolvedAuth{Mode: "password", Password: "pass123"}, &ConnectAuth{Password: "pass123"}, true, "password", ""},
		{"password mismatch", ResolvedAuth{Mode: "password", Password: "pass123"}, &ConnectAuth{Password: "wrong"}, false, "", "password_mismatch"},
		{"password empty", ResolvedAuth{Mode: "password", Password: "pass123"}, &ConnectAuth{}, false, "", "password required"},
		{"server password missing", ResolvedAuth{Mode: "password"}, &ConnectAuth{Password: "x"}, false, "", "server password not configured"},
		{"nil credentials", ResolvedAuth{Mode: "token", Token: "secret"}, nil, false, "", "no credentials provided"},
		{"unknown mode", ResolvedAuth{Mode: "oauth"}, &ConnectAuth{Token: "x"}, false, "", "unknown auth mode: oauth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Authorize(tt.server, tt.client)
			assert.Equal(t, tt.ok, res.OK)
			assert.Equal(t, tt.reason, res.Reason)
			if tt.ok {
				assert.Equal(t, tt.method, res.Method)
			}
		})
	}
}

func TestAuthorizeBearer(t *testing.T) {
	token := ResolvedAuth{Mode: "token", Token: "secret"}
	password := ResolvedAuth{Mode: "password", Password: "pass123"}

	assert.True(t, AuthorizeBearer(token, "Bearer secret").OK)
	assert.True(t, AuthorizeBearer(token, "bearer  secret ").OK)
	assert.True(t, AuthorizeBearer(password, "Bearer pass123").OK)

	assert.Equal(t, "token_mismatch", AuthorizeBearer(token, "Bearer nope").Reason)
	assert.Equal(t, "password_mismatch", AuthorizeBearer(password, "Bearer secret").Reason)

	for _, header := range []string{"", "secret", "Basic secret", "Bearer", "Bearer   "} {
		res := AuthorizeBearer(token, header)
		assert.False(t, res.OK, header)
		assert.Equal(t, "bearer credentials required", res.Reason, header)
	}
}

// --- authRateLimiter ---

func TestAuthRateLimiter(t *testing.T) {
	limiter := newAuthRateLimiter()
	assert.True(t, limiter.allow("192.168.1.1:12345"))

	for range authRateMaxFails - 1 {
		limiter.recordFailure("192.168.1.1:12345")
	}
	assert.True(t, limiter.allow("192.168.1.1:12345"))

	limiter.recordFailure("192.168.1.1:54321")
	assert.False(t, limiter.allow("192.168.1.1:12345"), "failures count per host, not per port")
	assert.True(t, limiter.allow("192.168.1.2:12345"))
}

func TestAuthRateLimiter_IPWithoutPort(t *testing.T) {
	limiter := newAuthRateLimiter()
	for range authRateMaxFails {
		limiter.recordFailure("192.168.1.1")
	}
	assert.False(t, limiter.allow("192.168.1.1"))
}

func TestAuthRateLimiter_ExpiredFailures(t *testing.T) {
	limiter := newAuthRateLimiter()

	limiter.mu.Lock()
	old := time.Now().Add(-authRateWindow - time.Minute)
	for range authRateMaxFails {
		limiter.failures["192.168.1.1"] = append(limiter.failures["192.168.1.1"], old)
	}
	limiter.mu.Unlock()

	assert.True(t, limiter.allow("192.168.1.1:12345"))
}

func TestRecentSince(t *testing.T) {
	now := time.Now()
	times := []time.Time{now.Add(-time.Hour), now.Add(-time.Second), now}
	assert.Len(t, recentSince(times, now.Add(-time.Minute)), 2)
	assert.Empty(t, recentSince(nil, now))
}

func TestAuthRateLimiter_WindowSlides(t *testing.T) {
	limiter := newAuthRateLimiter()
	now := time.Now()
	limiter.now = func() time.Time { return now }

	for range authRateMaxFails {
		limiter.recordFailure("10.0.0.1:1")
	}
	assert.False(t, limiter.allow("10.0.0.1:2"))

	now = now.Add(authRateWindow + time.Second)
	assert.True(t, limiter.allow("10.0.0.1:2"))
	assert.Empty(t, limiter.failures, "expired hosts are forgotten")
}

func TestAuthRateLimiter_EvictsOldestHost(t *testing.T) {
	limiter := newAuthRateLimiter()
	now := time.Now()
	limiter.now = func() time.Time { return now }

	for i := range authRateMaxHosts {
		limiter.failures[fmt.Sprintf("10.1.%d.%d", i/256, i%256)] = []time.Time{now.Add(time.Duration(i) * time.Millisecond)}
	}
	limiter.recordFailure("192.168.9.9:1")

	assert.Len(t, limiter.failures, authRateMaxHosts)
	assert.NotContains(t, limiter.failures, "10.1.0.0")
	assert.Contains(t, limiter.failures, "192.168.9.9")
}
