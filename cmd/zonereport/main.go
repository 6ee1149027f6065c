// Command zonereport runs one analytics report over a local sales sheet and
// prints it as JSON, a text table or a terminal chart.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"geosales-dashboard/internal/analytics"
	"geosales-dashboard/internal/config"
	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/models"
	"geosales-dashboard/internal/observability"
	"geosales-dashboard/internal/temporal"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

const (
	chartWidth  = 60
	chartHeight = 12
)

var reports = []string{"zones", "trend", "categories", "heatmap", "summary", "map", "products", "charts", "dashboard"}

type options struct {
	file       string
	report     string
	format     string
	period     string
	metric     string
	limit      int
	eps        float64
	minSamples int
	logLevel   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("zonereport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.report, "report", "zones", "report to run: "+strings.Join(reports, ", "))
	fs.StringVar(&opts.format, "format", "text", "output format: json, text or chart")
	fs.StringVar(&opts.period, "period", "monthly", "trend period: daily, weekly or monthly")
	fs.StringVar(&opts.metric, "metric", "revenue", "trend metric: revenue, quantity or transactions")
	fs.IntVar(&opts.limit, "limit", analytics.DefaultTrendLimit, "number of trend periods")
	fs.Float64Var(&opts.eps, "eps", 0, "clustering radius in degrees (default depends on the report)")
	fs.IntVar(&opts.minSamples, "min-samples", 0, "minimum points per zone (default depends on the report)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: zonereport [flags] <sales.csv|sales.xlsx>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errors.New("exactly one input file is required")
	}
	opts.file = fs.Arg(0)
	return opts, nil
}

// params fills in the map or zone defaults for whatever was not set.
func (o options) params(defaults geo.Params) geo.Params {
	p := defaults
	if o.eps != 0 {
		p.Eps = o.eps
	}
	if o.minSamples != 0 {
		p.MinSamples = o.minSamples
	}
	return p
}

func loadTable(ctx context.Context, path string) (*dataset.Table, error) {
	name := filepath.Base(path)
	format, err := dataset.FormatFromName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.Decode(ctx, name, format, f)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := observability.NewLoggerTo(stderr, config.LoggerConfig{Level: opts.logLevel, Format: "text"})

	ctx, span := observability.StartSpan(ctx, "zonereport."+opts.report)
	span.SetTag("file", opts.file)

	table, err := loadTable(ctx, opts.file)
	if err != nil {
		span.End(logger, err)
		return fmt.Errorf("load %s: %w", opts.file, err)
	}
	logger.Info("dataset loaded", "file", opts.file, "rows", table.Len())

	result, err := build(table, opts)
	span.End(logger, err)
	if err != nil {
		return err
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "chart":
		return writeChart(stdout, result)
	case "text":
		return writeText(stdout, result)
	default:
		return fmt.Errorf("unknown format %q, use json, text or chart", opts.format)
	}
}

func build(table *dataset.Table, opts options) (any, error) {
	mapDefaults := geo.Params{Eps: 0.01, MinSamples: 2}
	zoneDefaults := geo.Params{Eps: 0.005, MinSamples: 3}
	engine := analytics.NewEngine(geo.DBSCAN{})

	switch opts.report {
	case "zones":
		return engine.BuildZoneReport(table, opts.params(zoneDefaults))
	case "trend":
		period, err := temporal.ParsePeriod(opts.period)
		if err != nil {
			return nil, err
		}
		metric, err := analytics.ParseMetric(opts.metric)
		if err != nil {
			return nil, err
		}
		if opts.limit < 1 {
			return nil, errors.New("limit must be a positive integer")
		}
		return analytics.BuildTrendReport(table, period, metric, opts.limit)
	case "categories":
		return analytics.BuildCategoryReport(table)
	case "heatmap":
		return analytics.BuildHeatmapReport(table)
	case "summary":
		return engine.BuildSummary(table, opts.params(mapDefaults))
	case "map":
		return engine.BuildMapData(table, opts.params(mapDefaults))
	case "products":
		return analytics.BuildProductAnalytics(table)
	case "charts":
		return engine.BuildCharts(table, opts.params(zoneDefaults))
	case "dashboard":
		return engine.BuildDashboard(table, opts.params(zoneDefaults))
	default:
		return nil, fmt.Errorf("unknown report %q, use one of: %s", opts.report, strings.Join(reports, ", "))
	}
}

func writeChart(w io.Writer, result any) error {
	var (
		values  []float64
		caption string
	)
	switch r := result.(type) {
	case models.TrendReport:
		for _, p := range r.Points {
			values = append(values, p.Value)
		}
		if len(r.Points) > 0 {
			caption = fmt.Sprintf("%s %s, %s to %s", r.Period, r.Metric, r.Points[0].Period, r.Points[len(r.Points)-1].Period)
		}
	case models.ZoneReport:
		for _, z := range r.Rankings.ByRevenue {
			values = append(values, z.Value)
		}
		caption = "zone revenue, best first"
	default:
		return errors.New("chart output supports the trend and zones reports")
	}
	if len(values) == 0 {
		_, err := fmt.Fprintln(w, "No data available")
		return err
	}
	graph := asciigraph.Plot(values,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
	)
	_, err := fmt.Fprintln(w, graph)
	return err
}

func money(v float64) string {
	cents := int64(math.Round(v * 100))
	return fmt.Sprintf("$%s.%02d", humanize.Comma(cents/100), cents%100)
}

func writeText(w io.Writer, result any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch r := result.(type) {
	case models.ZoneReport:
		fmt.Fprintf(tw, "ZONE\tSALES\tREVENUE\tAVG TICKET\tCATEGORY\tRADIUS\n")
		for _, z := range r.Zones {
			fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%s\t%s m\n",
				z.Zone, humanize.Comma(int64(z.Transactions)), money(z.Revenue),
				money(z.AverageRevenuePerSale), z.DominantCategory, humanize.Commaf(z.RadiusMeters))
		}
		fmt.Fprintf(tw, "\n%d zones, %d noise points (eps %g, min_samples %d)\n",
			len(r.Zones), r.NoisePoints, r.Eps, r.MinSamples)
	case models.TrendReport:
		fmt.Fprintf(tw, "PERIOD\t%s\tGROWTH\n", strings.ToUpper(r.Metric))
		for _, p := range r.Points {
			fmt.Fprintf(tw, "%s\t%s\t%+.2f%%\n", p.Period, humanize.CommafWithDigits(p.Value, 2), p.GrowthPct)
		}
	case models.CategoryReport:
		fmt.Fprintf(tw, "CATEGORY\tQUANTITY\tREVENUE\tQTY SHARE\tREV SHARE\n")
		for _, c := range r.PerCategory {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\t%.2f%%\n",
				c.Category, humanize.Commaf(c.Quantity), money(c.Revenue), c.QuantityShare, c.RevenueShare)
		}
	case models.SummaryReport:
		fmt.Fprintf(tw, "Sales\t%s\nRevenue\t%s\nAverage ticket\t%s\n\n",
			humanize.Comma(int64(r.Totals.TotalSales)), money(r.Totals.TotalRevenue), money(r.Totals.AverageTicket))
		fmt.Fprintf(tw, "PRODUCT\tSALES\n")
		for _, p := range r.PopularProducts {
			fmt.Fprintf(tw, "%s\t%d\n", p.Name, p.Count)
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return tw.Flush()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("zonereport failed", "error", err)
		os.Exit(1)
	}
}
