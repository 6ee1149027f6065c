package analytics

import (
	"cmp"
	"fmt"
	"slices"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/models"
	"geosales-dashboard/internal/temporal"
)

const heatmapBins = 10

// BuildHeatmapReport returns the geographic grid and the weekday by hour
// revenue view over the same cleaned rows.
func BuildHeatmapReport(t *dataset.Table) (models.HeatmapReport, error) {
	rows, err := prepare(t, dataset.HeatmapColumns)
	if err != nil {
		return models.HeatmapReport{}, err
	}
	return heatmapReport(rows), nil
}

func heatmapReport(rows []models.Transaction) models.HeatmapReport {
	return models.HeatmapReport{
		Geographic: geographicHeatmap(rows),
		Temporal:   temporalHeatmap(rows),
	}
}

// binner splits [lo, hi] into equal-width intervals. The top edge falls in
// the last bin; a zero-width range puts everything in bin 0.
type binner struct {
	lo, width float64
	n         int
}

func newBinner(lo, hi float64, n int) binner {
	return binner{lo: lo, width: (hi - lo) / float64(n), n: n}
}

func (b binner) bin(v float64) int {
	if b.width == 0 {
		return 0
	}
	i := int((v - b.lo) / b.width)
	return max(0, min(i, b.n-1))
}

func (b binner) label(i int) string {
	lo := b.lo + float64(i)*b.width
	hi := lo + b.width
	if i == b.n-1 {
		return fmt.Sprintf("[%.4f, %.4f]", lo, hi)
	}
	return fmt.Sprintf("[%.4f, %.4f)", lo, hi)
}

type cell struct{ lat, lon int }

func geographicHeatmap(rows []models.Transaction) []models.GeoCell {
	located := dataset.WithCoordinates(rows)
	if len(located) == 0 {
		return []models.GeoCell{}
	}

	minLat, maxLat := located[0].Latitude, located[0].Latitude
	minLon, maxLon := located[0].Longitude, located[0].Longitude
	for _, tx := range located[1:] {
		minLat, maxLat = min(minLat, tx.Latitude), max(maxLat, tx.Latitude)
		minLon, maxLon = min(minLon, tx.Longitude), max(maxLon, tx.Longitude)
	}
	latBins := newBinner(minLat, maxLat, heatmapBins)
	lonBins := newBinner(minLon, maxLon, heatmapBins)

	cells := make(map[cell]*AggregateRow)
	for _, tx := range located {
		k := cell{lat: latBins.bin(tx.Latitude), lon: lonBins.bin(tx.Longitude)}
		agg, ok := cells[k]
		if !ok {
			agg = &AggregateRow{}
			cells[k] = agg
		}
		agg.add(tx)
	}

	out := make([]models.GeoCell, 0, len(cells))
	for k, agg := range cells {
		center := agg.Centroid()
		out = append(out, models.GeoCell{
			LatBin:       k.lat,
			LonBin:       k.lon,
			LatRange:     latBins.label(k.lat),
			LonRange:     lonBins.label(k.lon),
			Revenue:      agg.Revenue,
			Quantity:     agg.Quantity,
			Transactions: agg.Count,
			Latitude:     center.Latitude,
			Longitude:    center.Longitude,
		})
	}
	slices.SortFunc(out, func(a, b models.GeoCell) int {
		if c := cmp.Compare(a.LatBin, b.LatBin); c != 0 {
			return c
		}
		return cmp.Compare(a.LonBin, b.LonBin)
	})
	return out
}

// temporalHeatmap sums revenue per weekday and hour. Rows whose clock string
// cannot be read are left out of this view only.
func temporalHeatmap(rows []models.Transaction) []models.TemporalCell {
	type slot struct{ day, hour int }
	revenue := make(map[slot]float64)
	for _, tx := range rows {
		if !tx.Has(models.FieldDate | models.FieldTime) {
			continue
		}
		hour, ok := temporal.ParseHour(tx.Time)
		if !ok {
			continue
		}
		revenue[slot{day: temporal.WeekdayIndex(tx.Date), hour: hour}] += tx.Revenue()
	}

	out := make([]models.TemporalCell, 0, len(revenue))
	for s, r := range revenue {
		out = append(out, models.TemporalCell{Weekday: temporal.Weekdays[s.day], Hour: s.hour, Revenue: r})
	}
	slices.SortFunc(out, func(a, b models.TemporalCell) int {
		if c := cmp.Compare(temporal.WeekdayOrder(a.Weekday), temporal.WeekdayOrder(b.Weekday)); c != 0 {
			return c
		}
		return cmp.Compare(a.Hour, b.Hour)
	})
	return out
}
