// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/wacrm/internal/api"
	"github.com/tomtom215/wacrm/internal/auth"
	"github.com/tomtom215/wacrm/internal/authz"
	"github.com/tomtom215/wacrm/internal/config"
	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/supervisor"
	"github.com/tomtom215/wacrm/internal/supervisor/services"
	"github.com/tomtom215/wacrm/internal/updater"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("app_root", cfg.Updater.AppRoot).
		Str("update_server", cfg.Updater.ServerURL).
		Str("status_store", cfg.Updater.StatusStore).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Configuration loaded")

	store, err := cfg.Updater.OpenStatusStore()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open update status store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing update status store")
		}
	}()

	manager, err := updater.NewManager(cfg.Updater.ManagerConfig(), store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize update manager")
	}
	logging.Info().Str("version", manager.CurrentVersion()).Msg("Update manager initialized")
	if n, err := manager.RecoverInterrupted(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to recover interrupted update jobs")
	} else if n > 0 {
		logging.Warn().Int("jobs", n).Msg("Previous process exited during an update; check the application tree")
	}

	handler, err := newHandler(cfg, manager)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build HTTP handler")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddUpdateService(manager)
	tree.AddUpdateService(updater.NewVersionWatcher(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if manager.Busy() {
		logging.Warn().Msg("Waiting for the running update job to finish")
	}
	manager.Wait()

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("WACRM update service stopped")
}

// newHandler wires authentication, authorization and the chi router around
// the update manager.
func newHandler(cfg *config.Config, manager api.UpdateManager) (http.Handler, error) {
	mode, err := auth.ParseAuthMode(cfg.Security.AuthMode)
	if err != nil {
		return nil, err
	}

	var jwtManager *auth.JWTManager
	switch mode {
	case auth.AuthModeJWT:
		jwtManager, err = auth.NewJWTManager(cfg.Security.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT manager: %w", err)
		}
		logging.Info().Msg("JWT authentication enabled")
	case auth.AuthModeNone:
		logging.Warn().Msg("SECURITY WARNING: authentication is disabled (AUTH_MODE=none); every caller is treated as admin")
	}

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("SECURITY WARNING: CORS allows any origin while authentication is enabled; set CORS_ORIGINS")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED")
	}

	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authorization: %w", err)
	}

	router := api.NewRouter(
		api.NewHandler(manager),
		auth.NewMiddleware(mode, jwtManager),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)),
	)
	return router.Setup(), nil
}
