package tlsconfig

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbeKeyPermissionsWarnsOnPermissiveMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX file modes not applicable on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(path, []byte("fake"), 0o644))

	warning, err := ProbeKeyPermissions(path)
	require.NoError(t, err)
	require.NotEmpty(t, warning)
}

func TestProbeKeyPermissionsSilentForRestrictedMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX file modes not applicable on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(path, []byte("fake"), 0o600))

	warning, err := ProbeKeyPermissions(path)
	require.NoError(t, err)
	require.Empty(t, warning)
}

func TestLoadCAPoolRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a cert"), 0o600))

	_, err := loadCAPool(path)
	require.Error(t, err)
}
