package coordinator

import (
	"net/http"

	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
	"github.com/threshold-network/frost-signer/internal/frosterr"
	"github.com/threshold-network/frost-signer/internal/httpx"
)

const maxBodyBytes = 1 << 20

type initDkgBody struct {
	Threshold   uint16            `json:"threshold"`
	Total       uint16            `json:"total"`
	Ciphersuite string            `json:"ciphersuite"`
	Endpoints   map[string]string `json:"endpoints"`
	HPKEPubkeys map[string]string `json:"hpke_pubkeys"`
}

func stringKeysToUint16(m map[string]string) (map[uint16]string, error) {
	out := make(map[uint16]string, len(m))
	for k, v := range m {
		id, err := parseParticipantID(k)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func parseParticipantID(s string) (uint16, error) {
	var id uint16
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, frosterr.InvalidInput("invalid participant id: %s", s)
		}
		id = id*10 + uint16(r-'0')
	}
	if id == 0 {
		return 0, frosterr.InvalidInput("invalid participant id: %s", s)
	}
	return id, nil
}

func (c *Coordinator) handleDkgInit(w http.ResponseWriter, r *http.Request) {
	var body initDkgBody
	if err := httpx.DecodeJSON(w, r, &body, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	endpoints, err := stringKeysToUint16(body.Endpoints)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	hpkeKeys, err := stringKeysToUint16(body.HPKEPubkeys)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	session, err := c.InitDkg(r.Context(), InitDkgRequest{
		Threshold:   body.Threshold,
		Total:       body.Total,
		Ciphersuite: body.Ciphersuite,
		Endpoints:   endpoints,
		HPKEPubkeys: hpkeKeys,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (c *Coordinator) handleDkgRound1(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID     string `json:"session_id"`
		ParticipantID uint16 `json:"participant_id"`
		Package       string `json:"package"`
	}
	if err := httpx.DecodeJSON(w, r, &body, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	session, err := c.SubmitRound1(r.Context(), body.SessionID, body.ParticipantID, body.Package)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (c *Coordinator) handleDkgRound2(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
		FromID    uint16 `json:"from_id"`
		ToID      uint16 `json:"to_id"`
		Sealed    string `json:"sealed_package"`
	}
	if err := httpx.DecodeJSON(w, r, &body, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	session, err := c.SubmitRound2(r.Context(), body.SessionID, body.FromID, body.ToID, body.Sealed)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (c *Coordinator) handleDkgFinalize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := httpx.DecodeJSON(w, r, &body, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	session, err := c.FinalizeDkg(r.Context(), body.SessionID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (c *Coordinator) handleDkgGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := c.GetDkgSession(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (c *Coordinator) handleSigningInit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GroupPubkey     string   `json:"group_pubkey"`
		Message         string   `json:"message"`
		SelectedSigners []uint16 `json:"selected_signers,omitempty"`
	}
	if err := httpx.DecodeJSON(w, r, &body, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	session, err := c.InitSigning(r.Context(), InitSigningRequest{
		GroupPubkey:     body.GroupPubkey,
		MessageBase64:   body.Message,
		SelectedSigners: body.SelectedSigners,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (c *Coordinator) handleSigningCommit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID     string `json:"session_id"`
		ParticipantID uint16 `json:"participant_id"`
		Commitment    string `json:"commitment"`
	}
	if err := httpx.DecodeJSON(w, r, &body, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	session, err := c.SubmitCommitment(r.Context(), body.SessionID, body.ParticipantID, body.Commitment)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (c *Coordinator) handleSigningPartial(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID      string `json:"session_id"`
		ParticipantID  uint16 `json:"participant_id"`
		SignatureShare string `json:"signature_share"`
	}
	if err := httpx.DecodeJSON(w, r, &body, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	session, err := c.SubmitPartial(r.Context(), body.SessionID, body.ParticipantID, body.SignatureShare)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (c *Coordinator) handleSigningAggregate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := httpx.DecodeJSON(w, r, &body, maxBodyBytes); err != nil {
		httpx.WriteError(w, err)
		return
	}
	session, err := c.Aggregate(r.Context(), body.SessionID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (c *Coordinator) handleSigningGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := c.GetSigningSession(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// BuildInfo is surfaced by GET /build-info.
type BuildInfo struct {
	Service     string `json:"service"`
	Ciphersuites []string `json:"ciphersuites"`
}

func handleBuildInfo(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, BuildInfo{
		Service:      "frost-coordinator",
		Ciphersuites: []string{string(csid.Secp256k1), string(csid.Ed25519)},
	})
}
