package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*Gate, jwk.Key) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privKey, err := jwk.Import(priv)
	require.NoError(t, err)
	require.NoError(t, privKey.Set(jwk.KeyIDKey, "test-key-1"))
	require.NoError(t, privKey.Set(jwk.AlgorithmKey, jwa.RS256()))

	pubKey, err := jwk.PublicKeyOf(privKey)
	require.NoError(t, err)

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pubKey))

	g := NewGate("https://guardian.example/.well-known/jwks.json")
	g.fetch = func(ctx context.Context, url string) (jwk.Set, error) {
		return set, nil
	}
	return g, privKey
}

func signAssertion(t *testing.T, key jwk.Key, sessionID string, participantID uint16, iat time.Time, scope string) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		IssuedAt(iat).
		Claim("session_id", sessionID).
		Claim("participant_id", participantID).
		Claim("scope", scope).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256(), key))
	require.NoError(t, err)
	return string(signed)
}

func TestAuthorizeAcceptsValidAssertion(t *testing.T) {
	g, priv := newTestGate(t)
	token := signAssertion(t, priv, "session-1", 3, time.Now(), "frost:sign")

	err := g.Authorize(context.Background(), token, "session-1", 3)
	require.NoError(t, err)
}

func TestAuthorizeRejectsWrongParticipant(t *testing.T) {
	g, priv := newTestGate(t)
	token := signAssertion(t, priv, "session-1", 3, time.Now(), "frost:sign")

	err := g.Authorize(context.Background(), token, "session-1", 4)
	require.Error(t, err)
}

func TestAuthorizeRejectsStaleIat(t *testing.T) {
	g, priv := newTestGate(t)
	token := signAssertion(t, priv, "session-1", 3, time.Now().Add(-72*time.Hour), "frost:sign")

	err := g.Authorize(context.Background(), token, "session-1", 3)
	require.Error(t, err)
}

func TestAuthorizeRejectsWrongScope(t *testing.T) {
	g, priv := newTestGate(t)
	token := signAssertion(t, priv, "session-1", 3, time.Now(), "frost:other")

	err := g.Authorize(context.Background(), token, "session-1", 3)
	require.Error(t, err)
}

func TestDisabledGateAlwaysAuthorizes(t *testing.T) {
	g := NewGate("")
	require.NoError(t, g.Authorize(context.Background(), "not-even-a-jwt", "session-1", 3))
}
