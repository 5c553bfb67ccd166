package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	loamAdapter "github.com/aretw0/liveslides/pkg/adapters/loam"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/loader"
	"github.com/aretw0/liveslides/pkg/ports"
)

var importCmd = &cobra.Command{
	Use:   "import FILE|DIR",
	Short: "Store presentations in the catalog",
	Long: `Imports one presentation file under --code (or a freshly generated code), or
every deck of a directory under its file name. With --loam the directory is read
as a Loam vault, so Markdown decks with front matter are accepted too.`,
	Args: cobra.ExactArgs(1),
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
		out := cmd.OutOrStdout()

		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}

		if !info.IsDir() {
			p, err := loader.ReadFile(args[0])
			if err != nil {
				return err
			}
			code, _ := cmd.Flags().GetString("code")
			if code == "" {
				code, err = app.Catalog.Create(ctx, p)
			} else {
				code = domain.NormalizeCode(code)
				err = app.Catalog.Put(ctx, code, p)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s -> %s\n", args[0], code)
			return nil
		}

		var src ports.DeckSource = loader.NewDir(args[0])
		if useLoam, _ := cmd.Flags().GetBool("loam"); useLoam {
			if src, err = loamAdapter.Open(args[0]); err != nil {
				return err
			}
		}
		imported, failed, err := app.Catalog.Sync(ctx, src)
		if err != nil {
			return err
		}
		for _, code := range imported {
			fmt.Fprintln(out, code)
		}
		if failed > 0 {
			return fmt.Errorf("%d decks not imported", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("code", "", "Join code for a single file (default: generated)")
	importCmd.Flags().Bool("loam", false, "Read the directory as a Loam vault")
}
