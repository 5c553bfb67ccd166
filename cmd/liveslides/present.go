package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/liveslides/internal/config"
	"github.com/aretw0/liveslides/pkg/control"
)

var presentCmd = &cobra.Command{
	Use:   "present CODE [SLIDE_ID]",
	Short: "Move every participant to a slide",
	Long: `Writes the Current-State document of a presentation. With a slide id it jumps
there; with --next or --prev it steps through the deck; with --clear it goes back
to the welcome screen.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := context.Background()
		app, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer app.Close()

		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			token = os.Getenv(config.EnvPrefix + "TOKEN")
		}
		role := app.Auth.Role(token)
		code := args[0]

		next, _ := cmd.Flags().GetBool("next")
		prev, _ := cmd.Flags().GetBool("prev")
		reset, _ := cmd.Flags().GetBool("clear")

		switch {
		case reset:
			err = app.Control.Clear(ctx, role, code)
		case next || prev:
			delta := 1
			if prev {
				delta = -1
			}
			var id string
			id, err = app.Control.Step(ctx, role, code, delta)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", code, id)
			}
			return err
		case len(args) == 2:
			err = app.Control.SetCurrentSlide(ctx, role, code, args[1])
		default:
			state, serr := app.Control.CurrentState(ctx, code)
			if serr != nil {
				return serr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", code, state.CurrentSlideID)
			return nil
		}
		if err != nil {
			if role != control.RolePresenter {
				return fmt.Errorf("%w (pass --token or $%sTOKEN)", err, config.EnvPrefix)
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presentCmd)
	presentCmd.Flags().String("token", "", "Presenter token")
	presentCmd.Flags().Bool("next", false, "Step to the next slide")
	presentCmd.Flags().Bool("prev", false, "Step to the previous slide")
	presentCmd.Flags().Bool("clear", false, "Clear the current slide")
	presentCmd.MarkFlagsMutuallyExclusive("next", "prev", "clear")
}
