package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/liveslides/internal/cli"
	"github.com/aretw0/liveslides/internal/presentation/tui"
)

var moderateCmd = &cobra.Command{
	Use:   "moderate CODE",
	Short: "Show the live tally of a presentation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
			cfg.TallyFlushInterval = d
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		app, err := newApp(sigCtx, cfg, true)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.ModerateOptions{Code: args[0], Clear: true}
		opts.BarWidth, _ = cmd.Flags().GetInt("width")
		opts.LogLimit, _ = cmd.Flags().GetInt("log")
		return cli.RunModerate(sigCtx, app, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(moderateCmd)
	moderateCmd.Flags().Duration("interval", 0, "Refresh interval (default from config)")
	moderateCmd.Flags().Int("width", tui.DefaultBarWidth, "Width of a full bar")
	moderateCmd.Flags().Int("log", 10, "Number of recent events shown")
}
