// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses arguments and dispatches the gatechat commands:
// the TUI (default), the plain REPL, setup, the local proxy server,
// config management, and transcript export.
package cli

import (
	"fmt"
	"os"
	"strconv"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdSetup
	CmdServe
	CmdConfig
	CmdExport
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	Command    Command
	Subcommand string
	Positional []string

	// Command-specific
	Model  string
	Format string
	Output string
	Port   int
	Quiet  bool
}

const usageText = `gatechat - terminal chat client for the AI model gateway

Usage:
  gatechat                     Start the TUI (default)
  gatechat chat                Plain interactive chat (no TUI)
    -m, --model NAME           Use a specific model for this session
  gatechat setup               Store and verify a gateway API key
  gatechat serve               Run the local gateway proxy server
    -p, --port N               Listen port (default from config)
  gatechat config [show|path|set <key> <value>]
                               Configuration management
  gatechat export [chat-id]    Export a chat transcript
    --format md|json|html      Output format (default: md)
    --output DIR               Output directory (default: current)
  gatechat version             Show version
  gatechat help                Show this help

Interactive commands (during chat):
  /model [name]   Show or switch model
  /new            Start a fresh chat
  /history        Reprint the transcript
  /quit           Exit
`

// ParseArgs turns raw arguments into an Args value.
func ParseArgs(raw []string) Args {
	p := NewArgParser(raw)
	args := Args{
		Positional: p.Positional(),
		Model:      p.Flag("model", "m"),
		Format:     p.Flag("format", "f"),
		Output:     p.Flag("output", "o"),
		Quiet:      p.BoolFlag("quiet", "q"),
	}
	if port, err := strconv.Atoi(p.Flag("port", "p")); err == nil {
		args.Port = port
	}

	switch p.Subcommand() {
	case "":
		args.Command = CmdTUI
	case "chat":
		args.Command = CmdChat
	case "setup":
		args.Command = CmdSetup
	case "serve":
		args.Command = CmdServe
	case "config":
		args.Command = CmdConfig
	case "export":
		args.Command = CmdExport
	case "version", "--version", "-v":
		args.Command = CmdVersion
	case "help", "--help", "-h":
		args.Command = CmdHelp
	default:
		args.Command = CmdHelp
	}
	if p.BoolFlag("version") {
		args.Command = CmdVersion
	}
	if p.BoolFlag("help", "h") {
		args.Command = CmdHelp
	}
	if len(args.Positional) > 1 {
		args.Subcommand = args.Positional[1]
	}
	return args
}

// Run executes the parsed command and returns the process exit code.
func Run(raw []string) int {
	args := ParseArgs(raw)

	var err error
	switch args.Command {
	case CmdVersion:
		fmt.Printf("gatechat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	case CmdHelp:
		fmt.Print(usageText)
	case CmdSetup:
		err = RunSetup(args)
	case CmdServe:
		err = RunServe(args)
	case CmdConfig:
		err = RunConfig(args)
	case CmdExport:
		err = RunExport(args)
	case CmdChat:
		err = RunChat(args)
	default:
		err = RunTUI(args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "gatechat: %v\n", err)
		return 1
	}
	return 0
}
