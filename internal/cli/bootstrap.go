// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/gatechat/internal/config"
	"github.com/jeranaias/gatechat/internal/kv"
	"github.com/jeranaias/gatechat/internal/store"
	"github.com/jeranaias/gatechat/internal/tasks"
	"github.com/jeranaias/gatechat/internal/ui"
)

// =============================================================================
// ENVIRONMENT BOOTSTRAP
// =============================================================================

// rehydrateTimeout bounds the initial read of the persisted stores.
const rehydrateTimeout = 5 * time.Second

// Env bundles the loaded config and the opened stores for a command.
type Env struct {
	Cfg   *config.Config
	Chats *store.ChatStore
	Prefs *store.PrefsStore

	adapter kv.Store
	queue   *tasks.Queue
}

// openEnv loads the config, opens the configured storage backend, and
// rehydrates both stores.
func openEnv() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	adapter, err := openAdapter(cfg)
	if err != nil {
		return nil, err
	}

	queue := tasks.NewQueue(64)
	env := &Env{
		Cfg:     cfg,
		Chats:   store.NewChatStore(adapter, queue),
		Prefs:   store.NewPrefsStore(adapter, queue),
		adapter: adapter,
		queue:   queue,
	}

	ctx, cancel := context.WithTimeout(context.Background(), rehydrateTimeout)
	defer cancel()
	env.Prefs.Rehydrate(ctx)
	env.Chats.Rehydrate(ctx)
	return env, nil
}

// openAdapter builds the key-value backend per config, wrapping it with
// at-rest encryption when enabled.
func openAdapter(cfg *config.Config) (kv.Store, error) {
	var adapter kv.Store
	var err error

	switch cfg.Storage.Backend {
	case "sqlite":
		adapter, err = kv.NewSQLiteStore(filepath.Join(cfg.DataDir, "gatechat.db"))
	default:
		adapter, err = kv.NewFileStore(filepath.Join(cfg.DataDir, "store"))
	}
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	if !cfg.Storage.Encrypt {
		return adapter, nil
	}

	keystore, err := kv.NewFileKeyStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	secure, err := kv.NewSecureStore(adapter, keystore)
	if err != nil {
		return nil, fmt.Errorf("enable encryption: %w", err)
	}
	return secure, nil
}

// Close drains pending persistence work and releases the backend. The
// queue's last swallowed write failure, if any, is returned so commands
// can warn on exit.
func (e *Env) Close() error {
	err := e.queue.Close()
	if cerr := e.adapter.Close(); err == nil {
		err = cerr
	}
	return err
}

// =============================================================================
// TUI COMMAND
// =============================================================================

// RunTUI starts the full-screen interface.
func RunTUI(args Args) error {
	if !stdoutIsTerminal() {
		return fmt.Errorf("stdout is not a terminal; try \"gatechat chat\" for plain mode")
	}

	env, err := openEnv()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := env.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "gatechat: some chats may not have been saved: %v\n", cerr)
		}
	}()

	return ui.Run(env.Cfg, env.Chats, env.Prefs)
}
