package analytics

import (
	"slices"
	"strings"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/models"
)

// BuildProductAnalytics summarizes quantity per product along with the
// point each product sells around. Products are listed alphabetically.
func BuildProductAnalytics(t *dataset.Table) (models.ProductAnalytics, error) {
	rows, err := prepare(t, dataset.MapColumns)
	if err != nil {
		return models.ProductAnalytics{}, err
	}

	groups := Aggregate(rows, ByProduct)
	slices.SortStableFunc(groups, func(a, b AggregateRow) int {
		return strings.Compare(a.Key(), b.Key())
	})

	stats := make([]models.ProductStat, len(groups))
	for i, g := range groups {
		stats[i] = models.ProductStat{
			Product:         g.Key(),
			TotalQuantity:   g.Quantity,
			AverageQuantity: Round2(Ratio(g.Quantity, float64(g.Count))),
			Sales:           g.Count,
			Center:          g.Centroid(),
		}
	}

	total := Total(rows)
	return models.ProductAnalytics{
		Products:         stats,
		TotalSales:       total.Quantity,
		AverageSale:      Round2(Ratio(total.Quantity, float64(total.Count))),
		GeographicCenter: total.Centroid(),
	}, nil
}
