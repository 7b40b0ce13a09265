// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses arguments and implements the plain-terminal command
// handlers.
package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/djinn-tui/internal/util"
)

// =============================================================================
// MODEL TABLE
// =============================================================================

// HandleModels prints the installed models as a plain table.
func HandleModels(args Args) error {
	cfg, client, err := loadSetup(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := client.CheckRunning(ctx); err != nil {
		return fmt.Errorf("daemon is not running at %s", cfg.Daemon.Host)
	}

	models, err := client.List(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("no models installed")
		return nil
	}

	if !args.Quiet {
		fmt.Printf("%-36s %10s  %s\n", "NAME", "SIZE", "MODIFIED")
	}
	for _, m := range models {
		fmt.Printf("%-36s %10s  %s\n",
			util.TruncateWidth(m.Name, 36),
			util.FormatBytes(m.Size),
			m.ModifiedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
