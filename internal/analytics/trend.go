package analytics

import (
	"fmt"
	"slices"
	"strings"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/models"
	"geosales-dashboard/internal/temporal"
)

const (
	dailyWindow  = 30
	weeklyWindow = 12

	DefaultTrendLimit = 12
)

type Metric string

const (
	MetricRevenue      Metric = "revenue"
	MetricQuantity     Metric = "quantity"
	MetricTransactions Metric = "transactions"
)

var metricAliases = map[string]Metric{
	"revenue":       MetricRevenue,
	"ingresos":      MetricRevenue,
	"quantity":      MetricQuantity,
	"cantidad":      MetricQuantity,
	"transactions":  MetricTransactions,
	"transacciones": MetricTransactions,
}

func ParseMetric(s string) (Metric, error) {
	m, ok := metricAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown metric %q, use revenue, quantity or transactions", s)
	}
	return m, nil
}

func (m Metric) Of(r AggregateRow) float64 {
	switch m {
	case MetricQuantity:
		return r.Quantity
	case MetricTransactions:
		return float64(r.Count)
	default:
		return r.Revenue
	}
}

// periodSeries groups rows into chronologically sorted period buckets.
func periodSeries(rows []models.Transaction, p temporal.Period) []AggregateRow {
	series := Aggregate(rows, ByPeriod(p))
	slices.SortFunc(series, func(a, b AggregateRow) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return series
}

func trendPoints(series []AggregateRow) []models.TrendPoint {
	out := make([]models.TrendPoint, len(series))
	for i, r := range series {
		out[i] = models.TrendPoint{
			Period:       r.Key(),
			Quantity:     r.Quantity,
			Revenue:      r.Revenue,
			Transactions: r.Count,
		}
	}
	return out
}

// BuildTrendSeries returns the monthly series in full and the most recent
// 12 weeks and 30 days.
func BuildTrendSeries(t *dataset.Table) (models.TrendSeries, error) {
	rows, err := prepare(t, dataset.TrendColumns)
	if err != nil {
		return models.TrendSeries{}, err
	}
	return trendSeries(rows), nil
}

func trendSeries(rows []models.Transaction) models.TrendSeries {
	return models.TrendSeries{
		Monthly: trendPoints(periodSeries(rows, temporal.Monthly)),
		Weekly:  trendPoints(Tail(periodSeries(rows, temporal.Weekly), weeklyWindow)),
		Daily:   trendPoints(Tail(periodSeries(rows, temporal.Daily), dailyWindow)),
	}
}

// BuildTrendReport returns one metric per period bucket for the last limit
// buckets, each with its growth over the previous bucket in the window.
// limit <= 0 keeps every bucket.
func BuildTrendReport(t *dataset.Table, period temporal.Period, metric Metric, limit int) (models.TrendReport, error) {
	rows, err := prepare(t, dataset.TrendColumns)
	if err != nil {
		return models.TrendReport{}, err
	}
	return trendReport(rows, period, metric, limit), nil
}

func trendReport(rows []models.Transaction, period temporal.Period, metric Metric, limit int) models.TrendReport {
	series := Tail(periodSeries(rows, period), limit)
	values := make([]float64, len(series))
	for i, r := range series {
		values[i] = metric.Of(r)
	}
	growth := Growth(values)

	points := make([]models.GrowthPoint, len(series))
	for i, r := range series {
		points[i] = models.GrowthPoint{
			Period:    r.Key(),
			Value:     values[i],
			GrowthPct: Round2(growth[i]),
		}
	}
	return models.TrendReport{
		Period: string(period),
		Metric: string(metric),
		Limit:  limit,
		Points: points,
	}
}
