package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	submissionRateLimit   = 5
	submissionRateWindow  = time.Hour
	submissionDedupWindow = 24 * time.Hour
)

// submissionGuard throttles user submissions per client and drops exact repeats.
type submissionGuard struct {
	limiter *localRateLimiter
	deduper *localDeduper
}

func newSubmissionGuard() *submissionGuard {
	return &submissionGuard{
		limiter: newLocalRateLimiter(),
		deduper: newLocalDeduper(),
	}
}

// admit writes a 429 and returns false when the client is over its limit.
func (g *submissionGuard) admit(w http.ResponseWriter, key string) bool {
	allowed, retryAfter := g.limiter.allow(key, submissionRateLimit, submissionRateWindow)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}

// duplicate reports whether the same fingerprint was seen inside the dedupe window.
func (g *submissionGuard) duplicate(parts ...string) bool {
	return g.deduper.seen(fingerprint(parts...), submissionDedupWindow)
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
	now    func() time.Time
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
		now:    time.Now,
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := state.resetAt.Sub(now)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

type localDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (d *localDeduper) seen(key string, window time.Duration) bool {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if expiresAt, ok := d.entries[key]; ok && now.Before(expiresAt) {
		return true
	}

	d.entries[key] = now.Add(window)
	return false
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func fingerprint(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, part := range parts {
		normalized[i] = normalizeText(part)
	}
	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

func normalizeText(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
