package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/liveslides/internal/presentation/graph"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/loader"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph FILE|CODE",
	Short: "Export the slide graph visualization",
	Long: `Outputs a Mermaid diagram of the slides and their Slide-action edges. Given a
join code it reads the catalog and highlights the current slide.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, overlay, err := graphSource(cmd, args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(p, overlay))
		return nil
	},
}

func graphSource(cmd *cobra.Command, arg string) (*domain.Presentation, *graph.Overlay, error) {
	if _, err := os.Stat(arg); err == nil {
		p, err := loader.ReadFile(arg)
		return p, nil, err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	app, err := newApp(ctx, cfg, true)
	if err != nil {
		return nil, nil, err
	}
	defer app.Close()

	p, err := app.Catalog.Get(ctx, arg)
	if err != nil {
		return nil, nil, err
	}
	state, err := app.Control.CurrentState(ctx, arg)
	if err != nil || state.CurrentSlideID == "" {
		return p, nil, nil
	}
	return p, &graph.Overlay{CurrentSlide: state.CurrentSlideID}, nil
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
