package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/present"
	"dataco-dashboard/internal/services"
)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "dashctl",
		Short: "Query the DataCo delivery and sales dashboard from the terminal",
		Long: `Query the DataCo delivery and sales dashboard from the terminal.

The warehouse connection is configured the same way as the web server:
CONFIG_FILE names an optional YAML file and WAREHOUSE_* variables override it.`,
		SilenceUsage: true,
	}
	root.AddCommand(newReportCmd(open), newMarketsCmd(open), newViewsCmd())
	return root
}

type reportOptions struct {
	markets []string
	start   string
	end     string
	view    string
	format  string
}

// selection applies the flags on top of defaults. marketsSet reports whether
// --markets was given; an explicit empty list selects no markets.
func (o reportOptions) selection(defaults models.Selection, marketsSet bool) (models.Selection, error) {
	sel := defaults
	if marketsSet {
		sel.Markets = []string{}
		for _, m := range o.markets {
			if m = strings.TrimSpace(m); m != "" {
				sel.Markets = append(sel.Markets, m)
			}
		}
	}

	var err error
	if sel.Range.Start, err = parseDateFlag("start", o.start, defaults.Range.Start); err != nil {
		return models.Selection{}, err
	}
	if sel.Range.End, err = parseDateFlag("end", o.end, defaults.Range.End); err != nil {
		return models.Selection{}, err
	}
	return sel, nil
}

func parseDateFlag(name, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(present.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: expected %s", name, value, present.DateLayout)
	}
	return t, nil
}

func newReportCmd(open opener) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute dashboard views for a market and date selection",
		Example: `  dashctl report --markets US,Europe --start 2017-01-01 --end 2017-06-30
  dashctl report --view days-late --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case "table", "json":
			default:
				return fmt.Errorf("unknown format %q: use table or json", opts.format)
			}
			if opts.view != "" {
				if _, ok := services.LookupView(opts.view); !ok {
					return fmt.Errorf("%w: %s", services.ErrUnknownView, opts.view)
				}
			}

			ctx := cmd.Context()
			analytics, closeFn, err := open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeFn()

			defaults, err := analytics.Defaults(ctx)
			if err != nil {
				return err
			}
			sel, err := opts.selection(defaults, cmd.Flags().Changed("markets"))
			if err != nil {
				return err
			}

			var views []models.Summary
			if opts.view != "" {
				s, err := analytics.View(ctx, opts.view, sel)
				if err != nil {
					return err
				}
				views = []models.Summary{s}
			} else {
				rep, err := analytics.Report(ctx, sel)
				if err != nil {
					return err
				}
				views = rep.Views
			}

			out := cmd.OutOrStdout()
			if opts.format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}
			for _, s := range views {
				fmt.Fprintln(out, renderSummary(s))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&opts.markets, "markets", nil, "comma-separated markets (default: every market)")
	cmd.Flags().StringVar(&opts.start, "start", "", "first shipping date, YYYY-MM-DD (default: earliest)")
	cmd.Flags().StringVar(&opts.end, "end", "", "last shipping date, YYYY-MM-DD (default: latest)")
	cmd.Flags().StringVar(&opts.view, "view", "", "compute a single view by id")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "table", "output format: table or json")
	return cmd
}

func newMarketsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "markets",
		Short: "List the markets and shipping date span of the completed orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			analytics, closeFn, err := open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeFn()

			defaults, err := analytics.Defaults(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range defaults.Markets {
				fmt.Fprintln(out, m)
			}
			if len(defaults.Markets) > 0 {
				fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("shipping dates %s to %s",
					defaults.Range.Start.Format(present.DateLayout), defaults.Range.End.Format(present.DateLayout))))
			}
			return nil
		},
	}
}

func newViewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the available views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			headers := []string{"id", "tab", "chart", "title"}
			rows := make([][]string, 0, len(services.Views()))
			for _, v := range services.Views() {
				rows = append(rows, []string{v.ID, v.Tab, string(v.Chart), v.Title})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("", headers, rows))
			return nil
		},
	}
}
