// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/server"
)

// =============================================================================
// SERVE COMMAND
// =============================================================================

// RunServe starts the local gateway proxy until interrupted.
func RunServe(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if args.Port != 0 {
		port = args.Port
	}

	srv := server.NewServer(port).WithGatewayURL(cfg.Gateway.BaseURL)

	// Pick up config edits while running so the upstream URL can be
	// changed without a restart. The port is fixed at startup.
	if path, err := config.ConfigPath(); err == nil {
		watcher, werr := config.NewWatcher(path, func(next *config.Config) {
			srv.WithGatewayURL(next.Gateway.BaseURL)
		})
		if werr == nil && watcher.Watch() == nil {
			defer watcher.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("gatechat proxy listening on :%d (upstream %s)\n", port, cfg.Gateway.BaseURL)
	return srv.Start(ctx)
}
