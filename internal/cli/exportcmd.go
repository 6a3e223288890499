// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/gatechat/internal/export"
)

// =============================================================================
// EXPORT COMMAND
// =============================================================================

// RunExport writes a chat transcript to a file. Without an id it
// exports the active chat; "list" prints the available chats.
func RunExport(args Args) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	if args.Subcommand == "list" {
		for _, c := range env.Chats.List() {
			fmt.Printf("%s  %s\n", c.ID, c.DisplayTitle())
		}
		return nil
	}

	id := args.Subcommand
	if id == "" {
		id = env.Prefs.Get().ActiveChatID
	}
	c, ok := env.Chats.Find(id)
	if !ok {
		return fmt.Errorf("no chat with id %q; \"gatechat export list\" shows chats", id)
	}

	format := args.Format
	if format == "" {
		format = "md"
	}
	exporter, err := export.ForFormat(format, nil)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.OutputDir = args.Output

	path, err := export.ExportToFile(&c, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
