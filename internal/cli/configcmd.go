// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/gatechat/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// RunConfig handles "gatechat config [show|path|set <key> <value>]".
func RunConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow()
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "set":
		if len(args.Positional) < 4 {
			return fmt.Errorf("usage: gatechat config set <key> <value>")
		}
		return configSet(args.Positional[2], args.Positional[3])
	default:
		return fmt.Errorf("unknown config subcommand %q (want show, path, or set)", args.Subcommand)
	}
}

func configShow() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return toml.NewEncoder(os.Stdout).Encode(cfg)
}

// configSet updates one key and writes the file back, re-validating the
// result so a bad value never lands on disk.
func configSet(key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch key {
	case "data_dir":
		cfg.DataDir = value
	case "gateway.base_url":
		cfg.Gateway.BaseURL = value
	case "gateway.timeout_secs":
		secs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		cfg.Gateway.TimeoutSecs = secs
	case "storage.backend":
		cfg.Storage.Backend = value
	case "storage.encrypt":
		cfg.Storage.Encrypt = strings.EqualFold(value, "true") || value == "1"
	case "server.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		cfg.Server.Port = port
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.render_markdown":
		cfg.UI.RenderMarkdown = strings.EqualFold(value, "true") || value == "1"
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}
