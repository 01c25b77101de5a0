package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestFromEnvSignerDerivesParticipantID(t *testing.T) {
	withEnv(t, map[string]string{
		"FROST_ROLE":      "signer",
		"FROST_SIGNER_ID": "frost-signer-03",
	})

	s, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, RoleSigner, s.Role)
	require.Equal(t, uint16(3), s.ParticipantID)
	require.Equal(t, defaultSignerPort, s.Port)
}

func TestFromEnvSignerRejectsZeroParticipantID(t *testing.T) {
	withEnv(t, map[string]string{
		"FROST_ROLE":      "signer",
		"FROST_SIGNER_ID": "signer-0",
	})

	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvCoordinatorParsesEndpoints(t *testing.T) {
	withEnv(t, map[string]string{
		"FROST_ROLE":             "coordinator",
		"FROST_SIGNER_ENDPOINTS": "https://s1:5101, https://s2:5101 ,https://s3:5101",
	})

	s, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, defaultCoordinatorPort, s.Port)
	require.Equal(t, []string{"https://s1:5101", "https://s2:5101", "https://s3:5101"}, s.SignerEndpoints)
}

func TestFromEnvProductionRequiresInternalToken(t *testing.T) {
	withEnv(t, map[string]string{
		"FROST_ROLE":       "coordinator",
		"FROST_PRODUCTION": "true",
	})

	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvRejectsUnknownRole(t *testing.T) {
	withEnv(t, map[string]string{"FROST_ROLE": "supervisor"})
	_, err := FromEnv()
	require.Error(t, err)
}
