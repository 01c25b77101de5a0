package coordinator

import (
	"net/http"

	"github.com/threshold-network/frost-signer/internal/httpx"
	"github.com/threshold-network/frost-signer/internal/ratelimit"
)

// RateLimitRules bundles the three route-group budgets NewHandler installs,
// mirroring internal/config.RateLimits without importing that package (it
// already imports this one's sibling in cmd/coordinator).
type RateLimitRules struct {
	DkgInit   ratelimit.Rule
	DkgRounds ratelimit.Rule
	Signing   ratelimit.Rule
}

// DefaultRateLimitRules matches spec.md 6.5's defaults.
func DefaultRateLimitRules() RateLimitRules {
	return RateLimitRules{
		DkgInit:   ratelimit.DefaultDkgInit(),
		DkgRounds: ratelimit.DefaultDkgRounds(),
		Signing:   ratelimit.DefaultSigning(),
	}
}

// NewHandler wires every route from spec.md 6.1's Coordinator table onto a
// net/http.ServeMux using Go 1.22's method-pattern routing. internalToken,
// when non-empty, is applied to every route, /health included, per the
// shared-secret gate original_source's web-app auth uses.
func (c *Coordinator) NewHandler(internalToken string, rules RateLimitRules) http.Handler {
	mux := http.NewServeMux()

	dkgInitLimiter := ratelimit.New(rules.DkgInit)
	dkgRoundsLimiter := ratelimit.New(rules.DkgRounds)
	signingLimiter := ratelimit.New(rules.Signing)

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /build-info", handleBuildInfo)

	mux.Handle("POST /dkg/init", ratelimit.Middleware(dkgInitLimiter, http.HandlerFunc(c.handleDkgInit)))
	mux.Handle("POST /dkg/round1", ratelimit.Middleware(dkgRoundsLimiter, http.HandlerFunc(c.handleDkgRound1)))
	mux.Handle("POST /dkg/round2", ratelimit.Middleware(dkgRoundsLimiter, http.HandlerFunc(c.handleDkgRound2)))
	mux.HandleFunc("POST /dkg/finalize", c.handleDkgFinalize)
	mux.HandleFunc("GET /dkg/{id}", c.handleDkgGet)

	mux.Handle("POST /signing/init", ratelimit.Middleware(signingLimiter, http.HandlerFunc(c.handleSigningInit)))
	mux.HandleFunc("POST /signing/commit", c.handleSigningCommit)
	mux.HandleFunc("POST /signing/partial", c.handleSigningPartial)
	mux.HandleFunc("POST /signing/aggregate", c.handleSigningAggregate)
	mux.HandleFunc("GET /signing/{id}", c.handleSigningGet)

	var handler http.Handler = mux
	handler = httpx.RequireInternalToken(internalToken, handler)
	return handler
}
