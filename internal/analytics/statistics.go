package analytics

import (
	"time"

	"geosales-dashboard/internal/models"
)

func statistics(rows []models.Transaction, zones int) models.Statistics {
	total := Total(rows)
	categories := make(map[string]struct{})
	products := make(map[string]struct{})

	var start, end time.Time
	for _, tx := range rows {
		if tx.Has(models.FieldCategory) {
			categories[tx.Category] = struct{}{}
		}
		if tx.Has(models.FieldProduct) {
			products[tx.ProductName] = struct{}{}
		}
		if !tx.Has(models.FieldDate) {
			continue
		}
		if start.IsZero() || tx.Date.Before(start) {
			start = tx.Date
		}
		if end.IsZero() || tx.Date.After(end) {
			end = tx.Date
		}
	}

	var period models.DataPeriod
	if !start.IsZero() {
		period = models.DataPeriod{
			Start:     start.Format("2006-01-02"),
			End:       end.Format("2006-01-02"),
			TotalDays: int(end.Sub(start).Hours() / 24),
		}
	}

	return models.Statistics{
		TotalSales:       total.Count,
		TotalRevenue:     total.Revenue,
		TotalQuantity:    total.Quantity,
		AverageTicket:    Round2(Ratio(total.Revenue, float64(total.Count))),
		AveragePrice:     Round2(total.MeanPrice()),
		ActiveCategories: len(categories),
		UniqueProducts:   len(products),
		ZonesIdentified:  zones,
		Period:           period,
	}
}
