// Command coordinator runs the FROST Coordinator service: DKG and signing
// session orchestration over mTLS to a fixed set of Signers, per spec.md.
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
	"github.com/threshold-network/frost-signer/internal/config"
	"github.com/threshold-network/frost-signer/internal/coordinator"
	"github.com/threshold-network/frost-signer/internal/keymaterial"
	"github.com/threshold-network/frost-signer/internal/ratelimit"
	"github.com/threshold-network/frost-signer/internal/storage"
	"github.com/threshold-network/frost-signer/internal/tlsconfig"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinator: building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("coordinator exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	settings, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if settings.Role != config.RoleCoordinator {
		return fmt.Errorf("FROST_ROLE=%s, this binary only runs the coordinator role", settings.Role)
	}

	store, err := storage.Open(settings.StorePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

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

	httpClient := coordinator.NewHTTPClientWithTimeout(settings.RequestTimeout)
	if settings.MTLSCAPath != "" {
		if mode, err := tlsconfig.ProbeKeyPermissions(settings.MTLSKeyPath); err != nil {
			logger.Warn("mtls key permission probe failed", zap.Error(err))
		} else if mode != "" {
			logger.Warn("mtls key file has a permissive mode", zap.String("mode", mode))
		}
		tlsCfg, err := tlsconfig.ClientConfig(settings.MTLSCAPath, settings.MTLSCertPath, settings.MTLSKeyPath)
		if err != nil {
			return fmt.Errorf("building mtls client config: %w", err)
		}
		httpClient = &http.Client{Timeout: settings.RequestTimeout, Transport: &http.Transport{TLSClientConfig: tlsCfg}}
	}

	signers := coordinator.NewHTTPSignerClient(httpClient)
	coord := coordinator.New(store, signers, auditLogger)
	handler := coord.NewHandler(settings.InternalToken, coordinator.RateLimitRules{
		DkgInit:   ratelimit.Rule{PerHour: settings.RateLimits.DkgInitPerHour, Burst: settings.RateLimits.DkgInitBurst},
		DkgRounds: ratelimit.Rule{PerHour: settings.RateLimits.DkgRoundsPerHour, Burst: settings.RateLimits.DkgRoundsBurst},
		Signing:   ratelimit.Rule{PerHour: settings.RateLimits.SigningPerHour, Burst: settings.RateLimits.SigningBurst},
	})

	if _, err := auditLogger.Append(audit.ServiceStart, audit.SystemActor(), "", audit.Success(), map[string]any{
		"role": string(settings.Role), "signer_endpoints": settings.SignerEndpoints,
	}); err != nil {
		logger.Warn("failed to append service_start audit entry", zap.Error(err))
	}

	server := &http.Server{
		Addr:         settings.Addr(),
		Handler:      handler,
		ReadTimeout:  settings.RequestTimeout,
		WriteTimeout: settings.RequestTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("coordinator listening", zap.String("addr", settings.Addr()), zap.Int("signer_count", len(settings.SignerEndpoints)))
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
		"role": string(settings.Role),
	}); err != nil {
		logger.Warn("failed to append service_stop audit entry", zap.Error(err))
	}

	if shutdownErr != nil && !errors.Is(shutdownErr, http.ErrServerClosed) {
		return shutdownErr
	}
	return nil
}
