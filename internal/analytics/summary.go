package analytics

import (
	"cmp"
	"slices"
	"strings"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/models"
	"geosales-dashboard/internal/temporal"
)

const popularProducts = 10

// BuildSummary returns the overview shown on the dashboard landing page.
// Coordinates are optional here: rows without them still count everywhere
// except in the active zones, which are clustered with mapParams.
func (e *Engine) BuildSummary(t *dataset.Table, mapParams geo.Params) (models.SummaryReport, error) {
	if err := mapParams.Validate(); err != nil {
		return models.SummaryReport{}, err
	}
	rows, err := prepare(t, dataset.SummaryColumns)
	if err != nil {
		return models.SummaryReport{}, err
	}

	total := Total(rows)

	categories := Aggregate(rows, ByCategory)
	slices.SortStableFunc(categories, func(a, b AggregateRow) int {
		return strings.Compare(a.Key(), b.Key())
	})
	byCategory := make([]models.CategorySummary, len(categories))
	for i, c := range categories {
		byCategory[i] = models.CategorySummary{Category: c.Key(), Sales: c.Count, Revenue: c.Revenue}
	}

	popular := TopN(Aggregate(rows, ByProduct), popularProducts, func(r AggregateRow) float64 { return float64(r.Count) })
	products := make([]models.NamedCount, len(popular))
	for i, p := range popular {
		products[i] = models.NamedCount{Name: p.Key(), Count: p.Count}
	}

	var perDay [7]int
	for _, tx := range rows {
		perDay[temporal.WeekdayIndex(tx.Date)]++
	}
	weekdays := make([]models.NamedCount, len(temporal.Weekdays))
	for i, name := range temporal.Weekdays {
		weekdays[i] = models.NamedCount{Name: name, Count: perDay[i]}
	}

	zones, err := e.activeZones(rows, mapParams)
	if err != nil {
		return models.SummaryReport{}, err
	}

	return models.SummaryReport{
		Totals: models.SummaryTotals{
			TotalSales:    total.Count,
			TotalRevenue:  total.Revenue,
			AverageTicket: Round2(Ratio(total.Revenue, float64(total.Count))),
		},
		ByCategory:      byCategory,
		PopularProducts: products,
		WeekdayTrend:    weekdays,
		ActiveZones:     zones,
	}, nil
}

// activeZones counts sales per zone, busiest first.
func (e *Engine) activeZones(rows []models.Transaction, p geo.Params) ([]models.ZoneActivity, error) {
	_, labels, err := e.cluster(rows, p)
	if err != nil {
		return nil, err
	}
	counts := make([]int, geo.CountClusters(labels))
	for _, l := range labels {
		if l != geo.Noise {
			counts[l]++
		}
	}
	zones := make([]models.ZoneActivity, len(counts))
	for id, n := range counts {
		zones[id] = models.ZoneActivity{Zone: id, Sales: n}
	}
	slices.SortStableFunc(zones, func(a, b models.ZoneActivity) int {
		return cmp.Compare(b.Sales, a.Sales)
	})
	return zones, nil
}
