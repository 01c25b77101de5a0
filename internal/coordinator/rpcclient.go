package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/threshold-network/frost-signer/internal/frosterr"
)

// SignerClient is the RPC surface the coordinator needs against one
// Signer, per spec.md 6.1's Signer table. A single timeout bounds every
// call (spec.md 5); there is no implicit retry.
type SignerClient interface {
	Round1(ctx context.Context, endpoint string, req Round1Request) (Round1Response, error)
	Round2(ctx context.Context, endpoint string, req Round2Request) (Round2Response, error)
	Finalize(ctx context.Context, endpoint string, req FinalizeRequest) (FinalizeResponse, error)
	Commit(ctx context.Context, endpoint string, req CommitRequest) (CommitResponse, error)
	Partial(ctx context.Context, endpoint string, req PartialRequest) (PartialResponse, error)
}

type Round1Request struct {
	SessionID   string `json:"session_id"`
	ParticipantID uint16 `json:"participant_id"`
	Threshold   uint16 `json:"threshold"`
	Total       uint16 `json:"total"`
	Ciphersuite string `json:"ciphersuite"`
}

type Round1Response struct {
	Package   string `json:"package"`
	HPKEPubkey string `json:"hpke_pubkey"`
}

type Round2Request struct {
	SessionID      string            `json:"session_id"`
	Round1Packages map[uint16]string `json:"round1_packages"`
	HPKEPubkeys    map[uint16]string `json:"hpke_pubkeys"`
}

type Round2Response struct {
	SealedByRecipient map[uint16]string `json:"sealed_by_recipient"`
}

type FinalizeRequest struct {
	SessionID       string            `json:"session_id"`
	Round1Packages  map[uint16]string `json:"round1_packages"`
	SealedToSelf    map[uint16]string `json:"sealed_to_self"` // from_id -> sealed payload addressed to this signer
}

type FinalizeResponse struct {
	GroupPubkey      string `json:"group_pubkey"`
	PublicKeyPackage string `json:"public_key_package"`
	VerifyingShare   string `json:"verifying_share"`
}

type CommitRequest struct {
	GroupPubkey string `json:"group_pubkey"`
	SessionID   string `json:"session_id"`
	Assertion   string `json:"assertion,omitempty"`
}

type CommitResponse struct {
	Commitment string `json:"commitment"`
}

type PartialRequest struct {
	GroupPubkey string            `json:"group_pubkey"`
	SessionID   string            `json:"session_id"`
	Message     string            `json:"message"`
	Commitments map[uint16]string `json:"commitments"`
	Assertion   string            `json:"assertion,omitempty"`
}

type PartialResponse struct {
	SignatureShare string `json:"signature_share"`
}

// httpSignerClient is the production SignerClient, a thin JSON-over-HTTP
// caller. Transport (plain or mTLS) is supplied by the caller via
// http.Client, per spec.md 6.3.
type httpSignerClient struct {
	hc *http.Client
}

func NewHTTPSignerClient(hc *http.Client) SignerClient {
	return &httpSignerClient{hc: hc}
}

func (c *httpSignerClient) do(ctx context.Context, endpoint, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return frosterr.Internal("encoding signer request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+path, bytes.NewReader(body))
	if err != nil {
		return frosterr.SignerUnreachable("building request to %s: %v", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return frosterr.SignerUnreachable("calling %s%s: %v", endpoint, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return frosterr.SignerUnreachable("reading response from %s%s: %v", endpoint, path, err)
	}

	if resp.StatusCode/100 != 2 {
		return frosterr.SignerError("signer %s%s returned status %d: %s", endpoint, path, resp.StatusCode, string(payload))
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return frosterr.SignerError("decoding response from %s%s: %v", endpoint, path, err)
		}
	}
	return nil
}

func (c *httpSignerClient) Round1(ctx context.Context, endpoint string, req Round1Request) (Round1Response, error) {
	var out Round1Response
	err := c.do(ctx, endpoint, "/signer/dkg/round1", req, &out)
	return out, err
}

func (c *httpSignerClient) Round2(ctx context.Context, endpoint string, req Round2Request) (Round2Response, error) {
	var out Round2Response
	err := c.do(ctx, endpoint, "/signer/dkg/round2", req, &out)
	return out, err
}

func (c *httpSignerClient) Finalize(ctx context.Context, endpoint string, req FinalizeRequest) (FinalizeResponse, error) {
	var out FinalizeResponse
	err := c.do(ctx, endpoint, "/signer/dkg/finalize", req, &out)
	return out, err
}

func (c *httpSignerClient) Commit(ctx context.Context, endpoint string, req CommitRequest) (CommitResponse, error) {
	var out CommitResponse
	err := c.do(ctx, endpoint, "/signer/sign/commit", req, &out)
	return out, err
}

func (c *httpSignerClient) Partial(ctx context.Context, endpoint string, req PartialRequest) (PartialResponse, error) {
	var out PartialResponse
	err := c.do(ctx, endpoint, "/signer/sign/partial", req, &out)
	return out, err
}

// NewHTTPClientWithTimeout builds the default-timeout client spec.md 5 calls for.
func NewHTTPClientWithTimeout(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
