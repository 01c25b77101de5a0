// Package tlsconfig loads the mTLS material spec.md 6.3 and 12 describe:
// a single CA issues both the signer's server certificate and the
// coordinator's client certificate, and each side verifies the other
// against that CA. spec.md 12 names mTLS material loading as an
// external-collaborator concern out of this module's core scope, so this
// stays a thin loader over crypto/tls rather than a certificate-management
// subsystem.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"runtime"

	"github.com/threshold-network/frost-signer/internal/frosterr"
)

// permissiveMode is the bit mask a private-key file must not set for
// group or world access, per spec.md 6.3's startup probe requirement.
const permissiveMode = 0o077

// ProbeKeyPermissions returns a warning string (empty if fine) when path is
// readable or writable by group or world. Windows has no POSIX mode bits,
// so the probe is a no-op there.
func ProbeKeyPermissions(path string) (string, error) {
	if runtime.GOOS == "windows" {
		return "", nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("tlsconfig: stat %s: %w", path, err)
	}
	if info.Mode().Perm()&permissiveMode != 0 {
		return fmt.Sprintf("tlsconfig: %s is readable by group or world (mode %o); restrict to 0600", path, info.Mode().Perm()), nil
	}
	return "", nil
}

// ServerConfig builds the signer's server-side TLS config: present
// certPath/keyPath, require and verify a coordinator client certificate
// against caPath.
func ServerConfig(caPath, certPath, keyPath string) (*tls.Config, error) {
	if warning, err := ProbeKeyPermissions(keyPath); err == nil && warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, frosterr.TLSConfig("loading server certificate: %v", err).Wrap(err)
	}
	pool, err := loadCAPool(caPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// ClientConfig builds the coordinator's client-side TLS config: present
// certPath/keyPath to signers, verify their server certificate against
// caPath.
func ClientConfig(caPath, certPath, keyPath string) (*tls.Config, error) {
	if warning, err := ProbeKeyPermissions(keyPath); err == nil && warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, frosterr.TLSConfig("loading client certificate: %v", err).Wrap(err)
	}
	pool, err := loadCAPool(caPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func loadCAPool(caPath string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, frosterr.TLSConfig("reading CA certificate %s: %v", caPath, err).Wrap(err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, frosterr.TLSConfig("no certificates found in %s", caPath)
	}
	return pool, nil
}
