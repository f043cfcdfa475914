// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
Package supervisor provides process supervision for the WACRM update service
using suture v4.

# Overview

	RootSupervisor ("wacrm")
	├── UpdateSupervisor ("update-layer")
	│   ├── updater.Manager          idles; on shutdown waits for detached jobs
	│   └── updater.VersionWatcher   keeps wacrm_app_version_info current
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events
(service start, panic, restart, backoff) are logged through sutureslog into
the zerolog-backed slog handler from internal/logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddUpdateService(manager)
	tree.AddUpdateService(updater.NewVersionWatcher(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, 30*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)
	manager.Wait() // ShutdownTimeout may elapse before a long install finishes

# Shutdown

Cancelling the context stops every service. The HTTP server stops accepting
requests and drains open connections. The update manager returns once its
detached install or restore jobs are done; the caller should still call
Manager.Wait because suture abandons services that exceed ShutdownTimeout.
*/
package supervisor
