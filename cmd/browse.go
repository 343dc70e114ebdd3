package cmd

import (
	"context"

	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/tui"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse a scored menu interactively",
	Long:  "Open the two-pane menu browser: ranked items on the left, the nutrition label on the right.",
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

		load := func(ctx context.Context, prefs dining.Preferences, refresh bool) (*dining.ResultSet, error) {
			if refresh {
				if err := e.coord.Invalidate(ctx, campus.Key, day, prefs); err != nil {
					e.logger.Printf("invalidate: %v", err)
				}
			}
			rs, err := e.coord.Analyze(ctx, campus.Key, day, prefs)
			return rs, userError(err)
		}

		name := campus.Name
		if name == "" {
			name = campus.Key
		}
		return tui.Run(tui.RunOpts{
			Campus:  name,
			Date:    day,
			Prefs:   preferences(),
			Load:    load,
			Timeout: e.cfg.RunTimeout() + e.cfg.FetchTimeout(),
		})
	},
}

func init() {
	addPreferenceFlags(browseCmd)
}
