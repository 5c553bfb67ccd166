package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/liveslides/internal/cli"
	"github.com/aretw0/liveslides/pkg/runner"
)

var joinCmd = &cobra.Command{
	Use:   "join CODE",
	Short: "Join a presentation as a participant",
	Long: `Follows the presenter's slide in the terminal. Answer by option number or
value, submit Identify forms as key=value pairs, r reloads, q quits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")
		opts := cli.JoinOptions{
			Code:     args[0],
			Headless: headless || !runner.IsTerminal(os.Stdin),
			JSON:     jsonMode,
		}
		opts.Identity, _ = cmd.Flags().GetString("identity")
		opts.LaunchersPath, _ = cmd.Flags().GetString("launchers")
		opts.NoOpen, _ = cmd.Flags().GetBool("no-open")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		app, err := newApp(sigCtx, cfg, true)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.RunJoin(sigCtx, app, opts, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
	joinCmd.Flags().Bool("headless", false, "No banner, no prompts; URL actions are approved")
	joinCmd.Flags().Bool("json", false, "JSON-Lines input and output")
	joinCmd.Flags().String("identity", "", "Participant identity (default participant:<uuid>)")
	joinCmd.Flags().String("launchers", "launchers.yaml", "URL launchers file")
	joinCmd.Flags().Bool("no-open", false, "Print URLs instead of opening them")
}
