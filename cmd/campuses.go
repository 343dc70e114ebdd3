package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagRemote bool

var campusesCmd = &cobra.Command{
	Use:   "campuses",
	Short: "List configured campuses",
	Long: `List the campuses from the config. With --remote, also fetch the menu site's
landing page and show which of its campuses each entry matches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer tw.Flush()

		if !flagRemote {
			fmt.Fprintln(tw, "KEY\tNAME\tMATCH\tDEFAULT")
			for _, c := range e.cfg.EnabledCampuses() {
				def := ""
				if c.Key == e.cfg.DefaultCampus {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Key, c.Name, c.Match, def)
			}
			return nil
		}

		form, err := e.site.Form(ctx)
		if err != nil {
			return fmt.Errorf("fetching menu site: %w", err)
		}
		fmt.Fprintln(tw, "KEY\tMATCH\tSITE VALUE")
		for _, c := range e.cfg.EnabledCampuses() {
			value, ok := form.Campus(c.Match)
			if !ok {
				value = "(not listed)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Key, c.Match, value)
		}
		tw.Flush()

		fmt.Printf("\nThe site lists %d campus(es):\n", len(form.Campuses))
		for _, o := range form.Campuses {
			fmt.Printf("  %s (%s)\n", o.Text, o.Value)
		}
		return nil
	},
}

func init() {
	campusesCmd.Flags().BoolVar(&flagRemote, "remote", false, "check campuses against the live menu site")
}
