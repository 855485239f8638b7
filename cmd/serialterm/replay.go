package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/dshills/serialterm/internal/capture"
	"github.com/dshills/serialterm/internal/config"
	"github.com/dshills/serialterm/internal/session"
)

func newReplayCmd(cfgPath *string) *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "replay <capture-file>",
		Short: "Render a capture file offline and print the screen text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("width") {
				cfg.Screen.Width = width
			}
			if cmd.Flags().Changed("height") {
				cfg.Screen.Height = height
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			r, err := capture.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			pslog.Ctx(cmd.Context()).Debug("replaying capture", "file", args[0], "width", cfg.Screen.Width)
			screen, err := session.Replay(cmd.Context(), cfg, r)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), screen.Text())
			return err
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "line width (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "visible height used for cursor addressing (default from config)")
	return cmd
}
