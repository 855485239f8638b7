// Package main is the entry point for serialterm, a serial console with a
// line-oriented terminal screen.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("serialterm command failed")
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "serialterm",
		Short:         "Serial console with a line-oriented terminal screen",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath(), "path to the TOML configuration file")

	root.AddCommand(newRunCmd(&cfgPath))
	root.AddCommand(newReplayCmd(&cfgPath))
	root.AddCommand(newVersionCmd())

	return root
}

// defaultConfigPath returns $XDG_CONFIG_HOME/serialterm/config.toml or its
// platform equivalent, or "" when there is no user config directory.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "serialterm", "config.toml")
}
