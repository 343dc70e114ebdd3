package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagExtractOut string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Dump every menu item with its nutrition label as JSON",
	Long: `Fetch the menu of a campus and print each item in menu order, paired with
its parsed nutrition label. Items without a label carry "nutrients": null.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		campus, err := e.campus()
		if err != nil {
			return err
		}
		day, err := e.date()
		if err != nil {
			return err
		}

		pairs, err := e.coord.ExtractNutrition(ctx, campus.Key, day)
		if err != nil {
			return userError(err)
		}

		if flagExtractOut == "" {
			return writeJSON(os.Stdout, pairs)
		}
		f, err := os.Create(flagExtractOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", flagExtractOut, err)
		}
		defer f.Close()
		if err := writeJSON(f, pairs); err != nil {
			return fmt.Errorf("writing %s: %w", flagExtractOut, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d item(s) to %s\n", len(pairs), flagExtractOut)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&flagExtractOut, "output", "o", "", "write JSON to a file instead of stdout")
}
