package analytics

import (
	"slices"
	"strings"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/models"
)

const topProductsPerCategory = 5

// BuildCategoryReport returns per-category totals with their share of all
// quantity and revenue, plus each category's five best-selling products.
// Categories are listed alphabetically.
func BuildCategoryReport(t *dataset.Table) (models.CategoryReport, error) {
	rows, err := prepare(t, []string{dataset.ColumnCategory, dataset.ColumnProduct, dataset.ColumnQuantity, dataset.ColumnPrice})
	if err != nil {
		return models.CategoryReport{}, err
	}
	return categoryReport(rows), nil
}

func categoryReport(rows []models.Transaction) models.CategoryReport {
	total := Total(rows)
	groups := Aggregate(rows, ByCategory)
	slices.SortStableFunc(groups, func(a, b AggregateRow) int {
		return strings.Compare(a.Key(), b.Key())
	})

	perCategory := make([]models.CategoryTotal, len(groups))
	for i, g := range groups {
		perCategory[i] = models.CategoryTotal{
			Category:      g.Key(),
			Quantity:      g.Quantity,
			Revenue:       g.Revenue,
			Transactions:  g.Count,
			AveragePrice:  Round2(g.MeanPrice()),
			QuantityShare: Round2(Share(g.Quantity, total.Quantity)),
			RevenueShare:  Round2(Share(g.Revenue, total.Revenue)),
		}
	}

	products := make(map[string][]AggregateRow, len(groups))
	for _, r := range Aggregate(rows, ByCategory, ByProduct) {
		products[r.Keys[0]] = append(products[r.Keys[0]], r)
	}

	top := make([]models.CategoryProducts, len(groups))
	for i, g := range groups {
		ranked := TopN(products[g.Key()], topProductsPerCategory, func(r AggregateRow) float64 { return r.Quantity })
		top[i] = models.CategoryProducts{Category: g.Key(), TopProducts: productTotals(ranked, 1)}
	}

	return models.CategoryReport{PerCategory: perCategory, TopProductsByCategory: top}
}

// productTotals converts aggregate rows whose product key sits at keyIdx.
func productTotals(rows []AggregateRow, keyIdx int) []models.ProductTotal {
	out := make([]models.ProductTotal, len(rows))
	for i, r := range rows {
		out[i] = models.ProductTotal{Product: r.Keys[keyIdx], Quantity: r.Quantity, Revenue: r.Revenue}
	}
	return out
}
