package gateway

import (
	"net"
	"sync"
	"time"
)

const (
	authRateWindow   = 5 * time.Minute
	authRateMaxFails = 10
	authRateMaxHosts = 10000
)

// authRateLimiter counts failed authentications per remote host inside a
// sliding window. Both the WebSocket handshake and bearer auth feed it.
type authRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	now      func() time.Time
}

func newAuthRateLimiter() *authRateLimiter {
	return &authRateLimiter{failures: make(map[string][]time.Time), now: time.Now}
}

func (l *authRateLimiter) allow(remoteAddr string) bool {
	host := remoteHost(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(host)) < authRateMaxFails
}

func (l *authRateLimiter) recordFailure(remoteAddr string) {
	host := remoteHost(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, tracked := l.failures[host]; !tracked && len(l.failures) >= authRateMaxHosts {
		l.sweep()
		if len(l.failures) >= authRateMaxHosts {
			l.evictOldest()
		}
	}
	l.failures[host] = append(l.prune(host), l.now())
}

// prune drops failures older than the window for host. Caller holds mu.
func (l *authRateLimiter) prune(host string) []time.Time {
	kept := recentSince(l.failures[host], l.now().Add(-authRateWindow))
	if len(kept) == 0 {
		delete(l.failures, host)
		return nil
	}
	l.failures[host] = kept
	return kept
}

// sweep prunes every tracked host. Caller holds mu.
func (l *authRateLimiter) sweep() {
	for host := range l.failures {
		l.prune(host)
	}
}

// evictOldest forgets the host whose first failure is the oldest. Caller
// holds mu.
func (l *authRateLimiter) evictOldest() {
	var oldest string
	var at time.Time
	for host, times := range l.failures {
		if oldest == "" || times[0].Before(at) {
			oldest, at = host, times[0]
		}
	}
	delete(l.failures, oldest)
}

func recentSince(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func remoteHost(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
		return host
	}
	return remoteAddr
}
