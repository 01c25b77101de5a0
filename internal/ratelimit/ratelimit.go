// Package ratelimit is a minimal per-route token-bucket limiter. spec.md
// names the rate limiter as an external-collaborator concern out of this
// module's core scope, so this stays a thin shim over golang.org/x/time/rate
// rather than a full multi-tenant limiter.
package ratelimit

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/threshold-network/frost-signer/internal/frosterr"
	"github.com/threshold-network/frost-signer/internal/httpx"
)

// Rule configures one route's budget: perHour sustained rate, burst allowance.
type Rule struct {
	PerHour int
	Burst   int
}

// Limiter serves one Rule to every caller undifferentiated by identity —
// sufficient for the single-tenant coordinator/signer deployment this
// module targets.
type Limiter struct {
	mu  sync.Mutex
	lim *rate.Limiter
}

func New(r Rule) *Limiter {
	perSecond := rate.Limit(float64(r.PerHour) / 3600.0)
	burst := r.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limiter{lim: rate.NewLimiter(perSecond, burst)}
}

func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lim.Allow()
}

// Middleware rejects requests over budget with 429 RATE_LIMITED.
func Middleware(l *Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow() {
			httpx.WriteError(w, frosterr.RateLimited())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Defaults per spec.md 6.5.
func DefaultDkgInit() Rule   { return Rule{PerHour: 10, Burst: 3} }
func DefaultDkgRounds() Rule { return Rule{PerHour: 60, Burst: 10} }
func DefaultSigning() Rule   { return Rule{PerHour: 30, Burst: 5} }
