// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jeranaias/gatechat/internal/gateway"
)

// =============================================================================
// SETUP COMMAND
// =============================================================================

// setupVerifyTimeout bounds the credential probe during setup.
const setupVerifyTimeout = 30 * time.Second

// RunSetup reads a gateway API key, verifies it against the gateway,
// and stores it in preferences. The key is read without echo when stdin
// is a terminal.
func RunSetup(args Args) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	fmt.Println("gatechat setup")
	fmt.Printf("Gateway: %s\n\n", env.Cfg.Gateway.BaseURL)

	credential, err := readCredential()
	if err != nil {
		return err
	}
	if credential == "" {
		return fmt.Errorf("no key entered")
	}

	fmt.Print("Verifying... ")
	ctx, cancel := context.WithTimeout(context.Background(), setupVerifyTimeout)
	defer cancel()

	client := gateway.NewClient(credential).WithBaseURL(env.Cfg.Gateway.BaseURL)
	if !gateway.VerifyWith(ctx, client) {
		fmt.Println("failed")
		return fmt.Errorf("the gateway rejected the key; nothing was stored")
	}
	fmt.Println("ok")

	env.Prefs.SetAPICredential(credential)
	if env.Prefs.Get().SelectedModel == nil {
		env.Prefs.SetSelectedModel(gateway.DefaultModel())
	}

	fmt.Printf("\nKey stored. Default model: %s\n", gateway.DefaultModel().Label)
	fmt.Println("Run \"gatechat\" to start chatting, or pick a model with ctrl+o.")
	return nil
}

// readCredential prompts for the key, masking input on a terminal.
func readCredential() (string, error) {
	fmt.Print("Gateway API key: ")

	if stdinIsTerminal() {
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return strings.TrimSpace(string(keyBytes)), nil
	}

	// Piped input (scripts, CI).
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
