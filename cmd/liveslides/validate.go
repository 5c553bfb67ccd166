package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check presentation files for consistency",
	Long: `Parses each JSON or YAML presentation and reports schema problems (errors)
and dangling Slide actions (warnings).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			if err := validateFile(cmd, path); err != nil {
				failed++
				fmt.Fprintf(out, "%s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(out, "%s: valid\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d presentations invalid", failed, len(args))
		}
		return nil
	},
}

func validateFile(cmd *cobra.Command, path string) error {
	p, err := loader.ReadFile(path)
	if err != nil {
		return err
	}
	if err := domain.Validate(p); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) && len(verr.Problems) > 1 {
			return fmt.Errorf("\n%v", err)
		}
		return err
	}
	for _, w := range domain.Lint(p) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: warning: %s\n", path, w)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
