package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/tablecrawl/internal/log"
)

// getBoolFlag reads a bool flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the redacting logger selected by --verbose and
// --log-json, writing to the command's stderr, and makes it the default.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := log.NewLogger(cmd.ErrOrStderr(), getBoolFlag(cmd, "verbose"), getBoolFlag(cmd, "log-json"))
	slog.SetDefault(logger)
	return logger
}
