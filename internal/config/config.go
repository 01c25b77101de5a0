// Package config loads service configuration from environment variables,
// validated once at startup. The same binary can run as either coordinator
// or signer depending on FROST_ROLE. Grounded on
// original_source/apps/signer/src/config.rs's approach of hand-rolled env
// parsing rather than a struct-tag config library, which is what the rest
// of the pack's small services also do for their own settings.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
)

// Role selects which service the binary runs as.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleSigner      Role = "signer"
)

func parseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coordinator":
		return RoleCoordinator, nil
	case "signer":
		return RoleSigner, nil
	default:
		return "", fmt.Errorf("config: invalid FROST_ROLE %q, must be \"coordinator\" or \"signer\"", s)
	}
}

// KEKProvider selects how the signer protects its long-term key shares at
// rest. Only Local is implemented; KMS is accepted so deployment config can
// name its intended target without the binary needing to support it yet.
type KEKProvider string

const (
	KEKProviderLocal KEKProvider = "local"
	KEKProviderKMS   KEKProvider = "kms"
)

func parseKEKProvider(s string) (KEKProvider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local":
		return KEKProviderLocal, nil
	case "kms":
		return KEKProviderKMS, nil
	default:
		return "", fmt.Errorf("config: invalid FROST_KEK_PROVIDER %q, must be \"local\" or \"kms\"", s)
	}
}

const (
	defaultCoordinatorPort = 5002
	defaultSignerPort      = 5101
	defaultRequestTimeout  = 30 * time.Second
	defaultBodyLimitBytes  = 16 << 20

	defaultDkgInitPerHour   = 10
	defaultDkgRoundsPerHour = 60
	defaultSigningPerHour   = 30
)

// RateLimits carries the per-hour/burst knobs for the three rate-limited
// route groups, per spec.md 6.5.
type RateLimits struct {
	DkgInitPerHour   int
	DkgInitBurst     int
	DkgRoundsPerHour int
	DkgRoundsBurst   int
	SigningPerHour   int
	SigningBurst     int
}

func defaultRateLimits() RateLimits {
	return RateLimits{
		DkgInitPerHour:   defaultDkgInitPerHour,
		DkgInitBurst:     3,
		DkgRoundsPerHour: defaultDkgRoundsPerHour,
		DkgRoundsBurst:   10,
		SigningPerHour:   defaultSigningPerHour,
		SigningBurst:     5,
	}
}

// Settings is the fully validated, role-aware configuration for one
// process. Fields unused by the process's role are left at their zero
// value.
type Settings struct {
	Role Role

	Host string
	Port int

	StorePath           string
	InternalToken       string
	InternalTokenNeeded bool

	RequestTimeout  time.Duration
	BodyLimitBytes  int64
	RateLimits      RateLimits
	Production      bool

	// Transport security: the coordinator uses this triple as its mTLS
	// client identity when calling signers; a signer uses it as its mTLS
	// server identity when accepting calls from the coordinator. Both
	// sides are issued by the same CA, per spec.md 6.3.
	MTLSCAPath   string
	MTLSCertPath string
	MTLSKeyPath  string

	// Coordinator-only.
	SignerEndpoints []string

	// Signer-only.
	SignerID      string
	ParticipantID uint16
	Ciphersuite   csid.Name
	KEKProvider   KEKProvider
	KEKID         string
	JWKSURL       string
}

func envTrim(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// FromEnv loads and validates Settings from the process environment.
func FromEnv() (*Settings, error) {
	roleStr := envTrim("FROST_ROLE")
	role, err := parseRole(roleStr)
	if err != nil {
		return nil, err
	}

	defaultPort := defaultCoordinatorPort
	if role == RoleSigner {
		defaultPort = defaultSignerPort
	}
	port := defaultPort
	if raw := envTrim("FROST_PORT"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("config: invalid FROST_PORT %q", raw)
		}
		port = p
	}

	host := envTrim("FROST_HOST")
	if host == "" {
		host = "::"
	}

	storePath := envTrim("FROST_DB_PATH")
	if storePath == "" {
		storePath = "frost-" + string(role) + ".db"
	}

	production := isTruthy(envTrim("FROST_PRODUCTION"))
	token := envTrim("FROST_INTERNAL_TOKEN")
	if production && token == "" {
		return nil, fmt.Errorf("config: FROST_INTERNAL_TOKEN is required when FROST_PRODUCTION is set")
	}

	requestTimeout := defaultRequestTimeout
	if raw := envTrim("FROST_REQUEST_TIMEOUT_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("config: invalid FROST_REQUEST_TIMEOUT_MS %q", raw)
		}
		requestTimeout = time.Duration(ms) * time.Millisecond
	}

	bodyLimit := int64(defaultBodyLimitBytes)
	if raw := envTrim("FROST_BODY_LIMIT_MB"); raw != "" {
		mb, err := strconv.Atoi(raw)
		if err != nil || mb <= 0 {
			return nil, fmt.Errorf("config: invalid FROST_BODY_LIMIT_MB %q", raw)
		}
		bodyLimit = int64(mb) << 20
	}

	settings := &Settings{
		Role:                role,
		Host:                host,
		Port:                port,
		StorePath:           storePath,
		InternalToken:       token,
		InternalTokenNeeded: production,
		RequestTimeout:      requestTimeout,
		BodyLimitBytes:      bodyLimit,
		RateLimits:          defaultRateLimits(),
		Production:          production,
	}

	switch role {
	case RoleCoordinator:
		if err := settings.loadCoordinator(); err != nil {
			return nil, err
		}
	case RoleSigner:
		if err := settings.loadSigner(); err != nil {
			return nil, err
		}
	}

	return settings, nil
}

func (s *Settings) loadCoordinator() error {
	raw := envTrim("FROST_SIGNER_ENDPOINTS")
	if raw != "" {
		for _, e := range strings.Split(raw, ",") {
			e = strings.TrimSpace(e)
			if e != "" {
				s.SignerEndpoints = append(s.SignerEndpoints, e)
			}
		}
	}
	s.MTLSCAPath = envTrim("FROST_MTLS_CA_PATH")
	s.MTLSCertPath = envTrim("FROST_MTLS_CERT_PATH")
	s.MTLSKeyPath = envTrim("FROST_MTLS_KEY_PATH")
	return nil
}

func (s *Settings) loadSigner() error {
	s.MTLSCAPath = envTrim("FROST_MTLS_CA_PATH")
	s.MTLSCertPath = envTrim("FROST_MTLS_CERT_PATH")
	s.MTLSKeyPath = envTrim("FROST_MTLS_KEY_PATH")
	s.JWKSURL = envTrim("FROST_GUARDIAN_JWKS_URL")

	s.SignerID = envTrim("FROST_SIGNER_ID")
	if s.SignerID == "" {
		return fmt.Errorf("config: FROST_SIGNER_ID is required for role signer")
	}
	id, err := lastNumericComponent(s.SignerID)
	if err != nil {
		return fmt.Errorf("config: FROST_SIGNER_ID %q: %w", s.SignerID, err)
	}
	if id == 0 {
		return fmt.Errorf("config: FROST_SIGNER_ID %q resolves to participant id 0, which is invalid", s.SignerID)
	}
	s.ParticipantID = id

	cs := envTrim("FROST_CIPHERSUITE")
	if cs == "" {
		cs = string(csid.Secp256k1)
	}
	name, err := csid.ParseName(cs)
	if err != nil {
		return fmt.Errorf("config: FROST_CIPHERSUITE: %w", err)
	}
	s.Ciphersuite = name

	kek, err := parseKEKProvider(envTrim("FROST_KEK_PROVIDER"))
	if err != nil {
		return err
	}
	s.KEKProvider = kek
	s.KEKID = envTrim("FROST_KEK_ID")
	if kek == KEKProviderKMS && s.KEKID == "" {
		return fmt.Errorf("config: FROST_KEK_ID is required when FROST_KEK_PROVIDER is \"kms\"")
	}
	return nil
}

// lastNumericComponent extracts the trailing run of digits from a signer
// id such as "signer-03" or "frost-signer-3", per spec.md 6.5's
// participant-id derivation rule.
func lastNumericComponent(id string) (uint16, error) {
	end := len(id)
	start := end
	for start > 0 && id[start-1] >= '0' && id[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, fmt.Errorf("no trailing numeric component")
	}
	n, err := strconv.ParseUint(id[start:end], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("trailing numeric component out of range: %w", err)
	}
	return uint16(n), nil
}

// Addr returns the host:port listen address for net.Listen.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
