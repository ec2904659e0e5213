// Package cli implements the solar-report command: a one-shot report over a plant log,
// printed as text or JSON and optionally exported to XLSX or PDF.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/chrissnell/solarstats/internal/analysis"
	"github.com/chrissnell/solarstats/internal/app"
	"github.com/chrissnell/solarstats/internal/constants"
	"github.com/chrissnell/solarstats/internal/dashboard"
	"github.com/chrissnell/solarstats/internal/export"
	"github.com/chrissnell/solarstats/internal/log"
	"github.com/chrissnell/solarstats/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DateLayout is the format of --start and --end
const DateLayout = "2006-01-02"

// ErrIncomplete is returned when the report finished with a status other than ok
var ErrIncomplete = errors.New("report incomplete")

type reportOptions struct {
	configFile    string
	configBackend string
	source        string
	start         string
	end           string
	column        string
	bucket        string
	correlate     string
	bins          int
	asJSON        bool
	xlsxPath      string
	pdfPath       string
	debug         bool
}

// NewReportCommand builds the solar-report root command writing to out
func NewReportCommand(out io.Writer) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "solar-report",
		Short: "Summarize a solar plant generation log.",
		Long: "Summarize a solar plant generation log: statistics, bucketed totals, hourly profile,\n" +
			"distribution and correlation against an auxiliary column.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       constants.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(opts, out)
		},
	}
	cmd.SetOut(out)

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "configuration file; flags override its values")
	flags.StringVar(&opts.configBackend, "config-backend", "yaml", "configuration backend: yaml or sqlite")
	flags.StringVarP(&opts.source, "source", "s", "", "plant log to analyse")
	flags.StringVar(&opts.start, "start", "", "first day of the range (YYYY-MM-DD)")
	flags.StringVar(&opts.end, "end", "", "last day of the range (YYYY-MM-DD)")
	flags.StringVarP(&opts.column, "column", "c", "", "generation column (default: first match)")
	flags.StringVarP(&opts.bucket, "bucket", "b", "", "aggregation: none, hourly, daily, weekly or monthly")
	flags.StringVar(&opts.correlate, "correlate", "", "column to correlate with generation")
	flags.IntVar(&opts.bins, "bins", 0, "histogram bins")
	flags.BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	flags.StringVar(&opts.xlsxPath, "xlsx", "", "also write the report to this XLSX file")
	flags.StringVar(&opts.pdfPath, "pdf", "", "also write the report to this PDF file")
	flags.BoolVar(&opts.debug, "debug", false, "log pipeline details to stderr")

	return cmd
}

func runReport(opts *reportOptions, out io.Writer) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}

	logger := zap.NewNop().Sugar()
	if opts.debug {
		base, err := log.New(true)
		if err != nil {
			return err
		}
		defer base.Sync()
		logger = base.Sugar()
	}

	dash, _, err := app.NewDashboard(cfg, logger)
	if err != nil {
		return err
	}

	req, err := opts.request()
	if err != nil {
		return err
	}
	report, err := dash.Build(req)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}

	if !report.Status.OK() {
		return fmt.Errorf("%w: %s", ErrIncomplete, report.Status)
	}

	for format, path := range map[export.Format]string{export.FormatXLSX: opts.xlsxPath, export.FormatPDF: opts.pdfPath} {
		if path == "" {
			continue
		}
		data, err := export.Render(report, format)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		logger.Infof("wrote %s", path)
	}

	return nil
}

// config loads the configuration file when given, then applies flag overrides
func (o *reportOptions) config() (*config.ConfigData, error) {
	cfg := &config.ConfigData{}
	if o.configFile != "" {
		filename, _ := filepath.Abs(o.configFile)
		provider, err := config.NewProvider(o.configBackend, filename)
		if err != nil {
			return nil, err
		}
		defer provider.Close()
		if cfg, err = provider.LoadConfig(); err != nil {
			return nil, err
		}
	}

	if o.source != "" {
		cfg.Source.Path = o.source
	}
	if o.bins != 0 {
		cfg.Analysis.HistogramBins = o.bins
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *reportOptions) request() (dashboard.Request, error) {
	req := dashboard.Request{
		Column:    o.column,
		Correlate: o.correlate,
		Bins:      o.bins,
	}
	for _, v := range []string{o.start, o.end} {
		if v == "" {
			continue
		}
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return req, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v)
		}
		req.Dates = append(req.Dates, d)
	}
	if o.bucket != "" {
		b, err := analysis.ParseBucket(o.bucket)
		if err != nil {
			return req, err
		}
		req.Bucket = b
	}
	return req, nil
}

func printReport(out io.Writer, r *dashboard.Report) {
	fmt.Fprintf(out, "Status: %s (%s)\n", r.Status, r.Message)
	if r.Detail != "" && r.Detail != r.Message {
		fmt.Fprintf(out, "Detail: %s\n", r.Detail)
	}
	if r.Filter != nil && r.Filter.Advisory != "" {
		fmt.Fprintf(out, "Note: %s\n", r.Filter.Advisory)
	}
	if r.Diagnostics.Unparseable > 0 {
		fmt.Fprintf(out, "Note: %d of %d rows have an unparseable timestamp\n", r.Diagnostics.Unparseable, r.Diagnostics.Rows)
	}
	if !r.Status.OK() {
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	s := r.Summary
	fmt.Fprintf(tw, "\nColumn\t%s\n", r.Column)
	fmt.Fprintf(tw, "Rows\t%d\n", r.Filter.Rows)
	fmt.Fprintf(tw, "Values\t%d (%d missing excluded)\n", s.Count, s.Missing)
	fmt.Fprintf(tw, "Mean\t%s\n", s.Mean)
	fmt.Fprintf(tw, "Median\t%s\n", s.Median)
	fmt.Fprintf(tw, "Std dev\t%s\n", s.StdDev)
	fmt.Fprintf(tw, "Min\t%s\n", s.Min)
	fmt.Fprintf(tw, "Max\t%s\n", s.Max)

	fmt.Fprintf(tw, "\nTotals (%s)\t\n", r.Trend.Bucket)
	for _, p := range r.Trend.Points {
		fmt.Fprintf(tw, "%s\t%s\n", p.Start.Format("2006-01-02 15:04"), p.Value)
	}

	fmt.Fprintf(tw, "\nHour\tMean\n")
	for _, h := range r.Hourly.Hours {
		fmt.Fprintf(tw, "%02d:00\t%s\n", h.Hour, h.Mean)
	}

	b := r.Distribution.Box
	fmt.Fprintf(tw, "\nQuartiles\t%s / %s / %s\n", b.Q1, b.Median, b.Q3)
	fmt.Fprintf(tw, "Whiskers\t%s .. %s (%d outliers)\n", b.LowerWhisker, b.UpperWhisker, b.Outliers)

	fit := r.Correlation.Fit
	fmt.Fprintf(tw, "\nCorrelation\t%s vs %s (%d pairs)\n", r.Column, r.CorrelationColumn, fit.N)
	if fit.Defined {
		fmt.Fprintf(tw, "Trend line\t%s = %s + %s * %s\n", r.Column, fit.Intercept, fit.Slope, r.CorrelationColumn)
		fmt.Fprintf(tw, "R squared\t%s\n", fit.RSquared)
	} else {
		fmt.Fprintf(tw, "Trend line\tundefined\n")
	}
}
