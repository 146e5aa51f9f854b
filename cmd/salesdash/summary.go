package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/salesdash/internal/core"
	"github.com/JonMunkholm/salesdash/internal/logging"
	"github.com/JonMunkholm/salesdash/internal/report"
)

type summaryOptions struct {
	path       string
	delimiter  string
	from, to   string
	categories []string
	topN       int
	format     string
	stats      bool
	logLevel   string
}

func newSummaryCmd() *cobra.Command {
	opts := summaryOptions{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print dashboard KPIs and top series for a selection",
		Long: `Run the pipeline once over the source file and print the dashboard for the
selected date range and categories.

Without --from/--to every date is included. Without --category every
category is included; --category may be repeated.`,
		Example: `  salesdash summary --path transactions.csv
  salesdash summary --path transactions.csv --from 2017-01-01 --to 2017-12-31 --category MOBILES
  salesdash summary --path transactions.csv --output markdown --stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.path == "" {
				opts.path = os.Getenv("SOURCE_PATH")
			}
			if opts.path == "" {
				return fmt.Errorf("--path or SOURCE_PATH is required")
			}
			return runSummary(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.path, "path", "p", "", "source CSV file (default $SOURCE_PATH)")
	f.StringVar(&opts.delimiter, "delimiter", ",", `field delimiter ("\t" for tab)`)
	f.StringVar(&opts.from, "from", "", "first order date, YYYY-MM-DD")
	f.StringVar(&opts.to, "to", "", "last order date, YYYY-MM-DD")
	f.StringArrayVarP(&opts.categories, "category", "c", nil, "category to include (repeatable)")
	f.IntVar(&opts.topN, "top", 10, "length of the ranked series")
	f.StringVarP(&opts.format, "output", "o", "text", "output format (text|markdown|csv)")
	f.BoolVar(&opts.stats, "stats", false, "also print pipeline statistics")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level for pipeline progress")

	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runSummary(cmd *cobra.Command, opts summaryOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	dates, err := core.ParseDateRange(opts.from, opts.to)
	if err != nil {
		return err
	}
	filter := core.Filter{Dates: dates, Categories: core.AllCategories()}
	if cmd.Flags().Changed("category") {
		filter.Categories = core.Categories(opts.categories...)
	}

	load := core.DefaultLoadOptions()
	if opts.delimiter == `\t` {
		load.Delimiter = '\t'
	} else if r := []rune(opts.delimiter); len(r) == 1 {
		load.Delimiter = r[0]
	} else {
		return fmt.Errorf("--delimiter must be a single character")
	}

	logger := logging.New(cmd.ErrOrStderr(), opts.logLevel, "text")
	ds, err := core.NewPipeline(load, logger).Load(cmd.Context(), opts.path)
	if err != nil {
		return err
	}

	dashOpts := core.DefaultDashboardOptions()
	dashOpts.TopN = opts.topN
	d := core.BuildDashboard(ds.Facts, filter, dashOpts)

	out := report.New(cmd.OutOrStdout(), format)
	if opts.stats {
		out.PipelineStats(ds.Stats)
	}
	out.Dashboard(d)
	return nil
}

func newPolicyCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Print the cleaning rules applied to each entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			report.New(cmd.OutOrStdout(), f).Policy(core.DescribePolicy())
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format (text|markdown|csv)")
	return cmd
}
