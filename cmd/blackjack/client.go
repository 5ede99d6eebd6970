package main

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/victorzsh/blackjack-server/internal/tui"
)

type ClientCmd struct {
	Server string `kong:"default='http://localhost:8080',help='Server base URL'"`
	Name   string `kong:"default='',help='Display name (defaults to $USER or \"Player\")'"`
	Room   string `kong:"help='Room code to join (creates a new room when empty)'"`
	Mode   int    `kong:"default='3',help='Match length when creating a room (3 or 5)'"`
	Debug  bool   `kong:"help='Log client internals to stderr'"`
}

func (c *ClientCmd) Run() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "Player"
	}

	// The TUI owns the terminal, so client logs go nowhere unless asked for
	logger := log.New(io.Discard)
	if c.Debug {
		logger = log.New(os.Stderr)
		logger.SetLevel(log.DebugLevel)
	}

	return tui.Run(tui.Config{
		ServerURL:  strings.TrimSpace(c.Server),
		PlayerName: name,
		RoomID:     strings.TrimSpace(c.Room),
		Mode:       c.Mode,
	}, logger)
}
