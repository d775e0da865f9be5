package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-policyforge/internal/metrics"
	"github.com/goliatone/go-policyforge/pkg/countries"
)

func newCountriesCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "countries [term]",
		Short: "Fetch the country list and print the entries matching term",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := ""
			if len(args) == 1 {
				term = args[0]
			}

			catalog := a.catalog(metrics.New())
			entries := catalog.Load(cmd.Context())
			if err := catalog.Err(); err != nil {
				return fmt.Errorf("fetch countries: %w", err)
			}

			matches := countries.Filter(entries, term)
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}
			out := cmd.OutOrStdout()
			for _, entry := range matches {
				fmt.Fprintln(out, entry.Label())
			}
			if len(matches) == 0 {
				fmt.Fprintf(out, "no countries match %q\n", strings.TrimSpace(term))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of entries to print (0 for all)")
	return cmd
}
