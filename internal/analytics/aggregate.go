package analytics

import (
	"strings"

	"geosales-dashboard/internal/models"
	"geosales-dashboard/internal/temporal"
)

// Dimension is one grouping key. Key reports false for rows that have no
// value for this dimension; such rows are left out of the grouping.
type Dimension struct {
	Name string
	Key  func(i int, tx models.Transaction) (string, bool)
}

var (
	ByCategory = Dimension{Name: "category", Key: func(_ int, tx models.Transaction) (string, bool) {
		return tx.Category, tx.Has(models.FieldCategory)
	}}
	ByProduct = Dimension{Name: "product", Key: func(_ int, tx models.Transaction) (string, bool) {
		return tx.ProductName, tx.Has(models.FieldProduct)
	}}
	ByDay   = ByPeriod(temporal.Daily)
	ByWeek  = ByPeriod(temporal.Weekly)
	ByMonth = ByPeriod(temporal.Monthly)
)

func ByPeriod(p temporal.Period) Dimension {
	return Dimension{Name: string(p), Key: func(_ int, tx models.Transaction) (string, bool) {
		if !tx.Has(models.FieldDate) {
			return "", false
		}
		return p.Key(tx.Date), true
	}}
}

// ByLabel groups rows by a per-row label computed elsewhere, such as a
// zone id. labels must be index-aligned with the aggregated rows.
func ByLabel(name string, labels []string) Dimension {
	return Dimension{Name: name, Key: func(i int, _ models.Transaction) (string, bool) {
		if i >= len(labels) || labels[i] == "" {
			return "", false
		}
		return labels[i], true
	}}
}

// AggregateRow is the shared intermediate shape of every report.
type AggregateRow struct {
	Keys     []string
	Quantity float64
	Revenue  float64
	Count    int

	priceSum   float64
	priceCount int
	latSum     float64
	lonSum     float64
	geoCount   int
}

func (r *AggregateRow) add(tx models.Transaction) {
	r.Count++
	if tx.Has(models.FieldQuantity) {
		r.Quantity += tx.Quantity
	}
	if tx.Has(models.FieldQuantity | models.FieldPrice) {
		r.Revenue += tx.Revenue()
	}
	if tx.Has(models.FieldPrice) {
		r.priceSum += tx.UnitPrice
		r.priceCount++
	}
	if tx.Has(models.FieldCoordinates) {
		r.latSum += tx.Latitude
		r.lonSum += tx.Longitude
		r.geoCount++
	}
}

// Key returns the first grouping key.
func (r AggregateRow) Key() string {
	if len(r.Keys) == 0 {
		return ""
	}
	return r.Keys[0]
}

func (r AggregateRow) MeanPrice() float64 {
	if r.priceCount == 0 {
		return 0
	}
	return r.priceSum / float64(r.priceCount)
}

// Centroid is the mean coordinate of the rows that had one.
func (r AggregateRow) Centroid() models.GeoPoint {
	if r.geoCount == 0 {
		return models.GeoPoint{}
	}
	n := float64(r.geoCount)
	return models.GeoPoint{Latitude: r.latSum / n, Longitude: r.lonSum / n}
}

// Aggregate groups rows by the given dimensions. Groups appear in the order
// their first row appears and only groups with at least one row exist.
// With no dimensions the result is a single row over all input.
func Aggregate(rows []models.Transaction, dims ...Dimension) []AggregateRow {
	index := make(map[string]int)
	var out []AggregateRow
	keys := make([]string, len(dims))

rowLoop:
	for i, tx := range rows {
		for d, dim := range dims {
			k, ok := dim.Key(i, tx)
			if !ok {
				continue rowLoop
			}
			keys[d] = k
		}
		composite := strings.Join(keys, "\x1f")
		pos, ok := index[composite]
		if !ok {
			pos = len(out)
			index[composite] = pos
			out = append(out, AggregateRow{Keys: append([]string(nil), keys...)})
		}
		out[pos].add(tx)
	}
	return out
}

// Total aggregates every row into one.
func Total(rows []models.Transaction) AggregateRow {
	var r AggregateRow
	for _, tx := range rows {
		r.add(tx)
	}
	return r
}
