// Command signer runs a FROST Signer service: it holds one participant's
// key material and performs DKG rounds and partial signing on request from
// a Coordinator, per spec.md.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/threshold-network/frost-signer/internal/audit"
	"github.com/threshold-network/frost-signer/internal/auditstore"
	"github.com/threshold-network/frost-signer/internal/auth"
	"github.com/threshold-network/frost-signer/internal/ciphersuite"
	"github.com/threshold-network/frost-signer/internal/config"
	"github.com/threshold-network/frost-signer/internal/hpke"
	"github.com/threshold-network/frost-signer/internal/kek"
	"github.com/threshold-network/frost-signer/internal/keymaterial"
	"github.com/threshold-network/frost-signer/internal/signerapp"
	"github.com/threshold-network/frost-signer/internal/storage"
	"github.com/threshold-network/frost-signer/internal/tlsconfig"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "signer: building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("signer exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	settings, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if settings.Role != config.RoleSigner {
		return fmt.Errorf("FROST_ROLE=%s, this binary only runs the signer role", settings.Role)
	}

	store, err := storage.Open(settings.StorePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	suite, err := ciphersuite.Get(settings.Ciphersuite)
	if err != nil {
		return fmt.Errorf("resolving ciphersuite: %w", err)
	}

	auditKey, err := keymaterial.LoadOrGenerateAuditKey(settings.StorePath + ".audit-key")
	if err != nil {
		return fmt.Errorf("loading audit signing key: %w", err)
	}
	if mode, err := tlsconfig.ProbeKeyPermissions(settings.StorePath + ".audit-key"); err != nil {
		logger.Warn("audit key permission probe failed", zap.Error(err))
	} else if mode != "" {
		logger.Warn("audit signing key file has a permissive mode", zap.String("mode", mode))
	}
	auditLogger, err := audit.NewLogger(auditstore.New(store), auditKey)
	if err != nil {
		return fmt.Errorf("constructing audit logger: %w", err)
	}

	hpkeKeys, err := loadOrGenerateHPKEKeys(settings.StorePath + ".hpke-key")
	if err != nil {
		return fmt.Errorf("loading hpke key pair: %w", err)
	}
	if mode, err := tlsconfig.ProbeKeyPermissions(settings.StorePath + ".hpke-key"); err != nil {
		logger.Warn("hpke key permission probe failed", zap.Error(err))
	} else if mode != "" {
		logger.Warn("hpke key file has a permissive mode", zap.String("mode", mode))
	}

	var kekProvider kek.Provider
	switch settings.KEKProvider {
	case config.KEKProviderKMS:
		kekProvider, err = kek.NewKMS(settings.KEKID)
		if err != nil {
			return fmt.Errorf("constructing kms kek provider: %w", err)
		}
	default:
		masterKey, err := kek.LoadOrGenerateMasterKey(settings.StorePath + ".kek-master")
		if err != nil {
			return fmt.Errorf("loading kek master key: %w", err)
		}
		if mode, err := tlsconfig.ProbeKeyPermissions(settings.StorePath + ".kek-master"); err != nil {
			logger.Warn("kek master key permission probe failed", zap.Error(err))
		} else if mode != "" {
			logger.Warn("kek master key file has a permissive mode", zap.String("mode", mode))
		}
		kekProvider, err = kek.NewLocal(masterKey)
		if err != nil {
			return fmt.Errorf("constructing local kek provider: %w", err)
		}
	}

	authGate := auth.NewGate(settings.JWKSURL)

	app := signerapp.New(store, suite, settings.SignerID, settings.ParticipantID, hpkeKeys, kekProvider, authGate, auditLogger)
	handler := app.NewHandler(settings.InternalToken)

	if _, err := auditLogger.Append(audit.ServiceStart, audit.SystemActor(), "", audit.Success(), map[string]any{
		"role": string(settings.Role), "participant_id": settings.ParticipantID, "ciphersuite": string(settings.Ciphersuite),
	}); err != nil {
		logger.Warn("failed to append service_start audit entry", zap.Error(err))
	}

	server := &http.Server{
		Addr:         settings.Addr(),
		Handler:      handler,
		ReadTimeout:  settings.RequestTimeout,
		WriteTimeout: settings.RequestTimeout,
	}

	useTLS := settings.MTLSCAPath != ""
	if useTLS {
		tlsCfg, err := tlsconfig.ServerConfig(settings.MTLSCAPath, settings.MTLSCertPath, settings.MTLSKeyPath)
		if err != nil {
			return fmt.Errorf("building mtls server config: %w", err)
		}
		server.TLSConfig = tlsCfg
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	serveErr := make(chan error, 1)
	go func() {
		if useTLS {
			logger.Info("signer listening with mtls", zap.String("addr", settings.Addr()), zap.String("signer_id", settings.SignerID))
			serveErr <- server.ListenAndServeTLS("", "")
			return
		}
		logger.Info("signer listening", zap.String("addr", settings.Addr()), zap.String("signer_id", settings.SignerID))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.RequestTimeout)
	defer cancel()
	shutdownErr := server.Shutdown(shutdownCtx)

	if _, err := auditLogger.Append(audit.ServiceStop, audit.SystemActor(), "", audit.Success(), map[string]any{
		"role": string(settings.Role), "participant_id": settings.ParticipantID,
	}); err != nil {
		logger.Warn("failed to append service_stop audit entry", zap.Error(err))
	}

	if shutdownErr != nil && !errors.Is(shutdownErr, http.ErrServerClosed) {
		return shutdownErr
	}
	return nil
}

// loadOrGenerateHPKEKeys persists a signer's static X25519 HPKE key pair
// across restarts: a fresh key pair each boot would strand any DKG round-2
// shares sealed to the previous one.
func loadOrGenerateHPKEKeys(path string) (*hpke.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != 32 {
			return nil, fmt.Errorf("signer: hpke key file %s has length %d, want 32", path, len(data))
		}
		var sk [32]byte
		copy(sk[:], data)
		return hpke.FromSecretKey(sk)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("signer: reading hpke key file %s: %w", path, err)
	}

	kp, err := hpke.Generate()
	if err != nil {
		return nil, fmt.Errorf("signer: generating hpke key pair: %w", err)
	}
	if err := os.WriteFile(path, kp.SecretKey[:], 0o600); err != nil {
		return nil, fmt.Errorf("signer: writing hpke key file %s: %w", path, err)
	}
	return kp, nil
}
