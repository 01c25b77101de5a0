package signerapp

import (
	"net/http"

	"github.com/threshold-network/frost-signer/internal/httpx"
)

// NewHandler wires the Signer's route table from spec.md 6.1. In
// production this handler sits behind mTLS (internal/tlsconfig); the
// internal-token gate additionally covers the non-mTLS deployment path.
func (a *App) NewHandler(internalToken string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /signer/info", a.handleInfo)
	mux.HandleFunc("GET /signer/keys", a.handleKeys)

	mux.HandleFunc("POST /signer/dkg/round1", a.handleDkgRound1)
	mux.HandleFunc("POST /signer/dkg/round2", a.handleDkgRound2)
	mux.HandleFunc("POST /signer/dkg/finalize", a.handleDkgFinalize)
	mux.HandleFunc("POST /signer/sign/commit", a.handleSignCommit)
	mux.HandleFunc("POST /signer/sign/partial", a.handleSignPartial)

	var handler http.Handler = mux
	handler = httpx.RequireInternalToken(internalToken, handler)
	return handler
}
