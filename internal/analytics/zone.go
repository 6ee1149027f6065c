package analytics

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/models"
)

const (
	zoneRankingSize = 10
	topProductsZone = 3
)

var zoneColumns = []string{dataset.ColumnLatitude, dataset.ColumnLongitude, dataset.ColumnCategory, dataset.ColumnProduct, dataset.ColumnQuantity, dataset.ColumnPrice}

// BuildZoneReport clusters the rows with the default labeler.
func BuildZoneReport(t *dataset.Table, p geo.Params) (models.ZoneReport, error) {
	return defaultEngine.BuildZoneReport(t, p)
}

// BuildZoneReport clusters the located rows into zones and reports each
// zone's totals, its rankings and the zone by category cross-tab. Noise
// points are counted but never ranked.
func (e *Engine) BuildZoneReport(t *dataset.Table, p geo.Params) (models.ZoneReport, error) {
	if err := p.Validate(); err != nil {
		return models.ZoneReport{}, err
	}
	rows, err := prepare(t, zoneColumns)
	if err != nil {
		return models.ZoneReport{}, err
	}
	return e.zoneReport(rows, p)
}

func (e *Engine) zoneReport(rows []models.Transaction, p geo.Params) (models.ZoneReport, error) {
	located, labels, err := e.cluster(rows, p)
	if err != nil {
		return models.ZoneReport{}, err
	}

	count := geo.CountClusters(labels)
	members := make([][]models.Transaction, count)
	keys := make([]string, len(located))
	noise := 0
	for i, l := range labels {
		if l == geo.Noise {
			noise++
			continue
		}
		members[l] = append(members[l], located[i])
		keys[i] = strconv.Itoa(l)
	}

	zones := make([]models.Zone, count)
	for id, zoneRows := range members {
		zones[id] = buildZone(id, zoneRows)
	}

	report := models.ZoneReport{
		Eps:          p.Eps,
		MinSamples:   p.MinSamples,
		Zones:        zones,
		Rankings:     rankZones(zones),
		ZoneCategory: zoneCategory(located, keys),
		NoisePoints:  noise,
	}
	return report, nil
}

func buildZone(id int, rows []models.Transaction) models.Zone {
	total := Total(rows)
	center := total.Centroid()

	pts := points(rows)
	radius := geo.RadiusMeters(geo.Point{Lat: center.Latitude, Lon: center.Longitude}, pts)

	var dominant string
	if byCategory := TopN(Aggregate(rows, ByCategory), 1, func(r AggregateRow) float64 { return r.Revenue }); len(byCategory) > 0 {
		dominant = byCategory[0].Key()
	}
	topProducts := TopN(Aggregate(rows, ByProduct), topProductsZone, func(r AggregateRow) float64 { return r.Quantity })

	return models.Zone{
		Zone:                  id,
		Quantity:              total.Quantity,
		Revenue:               total.Revenue,
		Transactions:          total.Count,
		AveragePrice:          Round2(total.MeanPrice()),
		Latitude:              center.Latitude,
		Longitude:             center.Longitude,
		AverageRevenuePerSale: Round2(Ratio(total.Revenue, float64(total.Count))),
		Density:               total.Count,
		DominantCategory:      dominant,
		TopProducts:           productTotals(topProducts, 0),
		RadiusMeters:          Round2(radius),
	}
}

func rankZones(zones []models.Zone) models.ZoneRankings {
	rank := func(metric func(models.Zone) float64) []models.ZoneRankEntry {
		top := TopN(zones, zoneRankingSize, metric)
		out := make([]models.ZoneRankEntry, len(top))
		for i, z := range top {
			out[i] = models.ZoneRankEntry{Zone: z.Zone, Value: metric(z), Latitude: z.Latitude, Longitude: z.Longitude}
		}
		return out
	}
	return models.ZoneRankings{
		ByRevenue:  rank(func(z models.Zone) float64 { return z.Revenue }),
		ByQuantity: rank(func(z models.Zone) float64 { return z.Quantity }),
		ByDensity:  rank(func(z models.Zone) float64 { return float64(z.Density) }),
	}
}

// zoneCategory cross-tabulates zone against category, ordered by zone id
// and then category name. Rows keyed "" are noise and drop out.
func zoneCategory(rows []models.Transaction, zoneKeys []string) []models.ZoneCategory {
	cells := Aggregate(rows, ByLabel("zone", zoneKeys), ByCategory)
	out := make([]models.ZoneCategory, len(cells))
	for i, c := range cells {
		id, _ := strconv.Atoi(c.Keys[0])
		out[i] = models.ZoneCategory{Zone: id, Category: c.Keys[1], Quantity: c.Quantity, Revenue: c.Revenue}
	}
	slices.SortFunc(out, func(a, b models.ZoneCategory) int {
		if c := cmp.Compare(a.Zone, b.Zone); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}
