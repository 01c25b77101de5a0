package signerapp

import (
	"net/http"

	"github.com/threshold-network/frost-signer/internal/httpx"
	"github.com/threshold-network/frost-signer/internal/storage"
)

const maxBodyBytes = 1 << 20

func (a *App) handleDkgRound1(w http.ResponseWriter, r *http.Request) {
	var req Round1Request
	if err := httpx.DecodeJSON(w, r, &req, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	resp, err := a.Round1(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (a *App) handleDkgRound2(w http.ResponseWriter, r *http.Request) {
	var req Round2Request
	if err := httpx.DecodeJSON(w, r, &req, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	resp, err := a.Round2(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (a *App) handleDkgFinalize(w http.ResponseWriter, r *http.Request) {
	var req FinalizeRequest
	if err := httpx.DecodeJSON(w, r, &req, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	resp, err := a.Finalize(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (a *App) handleSignCommit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := httpx.DecodeJSON(w, r, &req, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	resp, err := a.Commit(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (a *App) handleSignPartial(w http.ResponseWriter, r *http.Request) {
	var req PartialRequest
	if err := httpx.DecodeJSON(w, r, &req, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	resp, err := a.Partial(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (a *App) handleInfo(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, InfoResponse{
		SignerID:      a.signerID,
		ParticipantID: a.participantID,
		Ciphersuite:   string(a.suiteName),
		HPKEPubkey:    a.hpkeKeys.PublicKeyBase64(),
	})
}

// handleKeys lists the group_pubkeys this signer currently holds a key
// package for, per original_source's bin/signer.rs diagnostics route. It
// never returns key material, only the bucket's key-share identifiers.
func (a *App) handleKeys(w http.ResponseWriter, r *http.Request) {
	var groupPubkeys []string
	suffix := ":" + uint16Str(a.participantID)
	err := a.store.View(func(tx storage.Tx) error {
		return tx.ForEach(storage.BucketKeyShares, func(key string, _ []byte) error {
			if len(key) > len(suffix) && key[len(key)-len(suffix):] == suffix {
				groupPubkeys = append(groupPubkeys, key[:len(key)-len(suffix)])
			}
			return nil
		})
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, KeysResponse{GroupPubkeys: groupPubkeys})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
