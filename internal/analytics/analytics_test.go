package analytics

import (
	"errors"
	"testing"
	"time"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/models"
	"geosales-dashboard/internal/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const allFields = models.FieldID | models.FieldDate | models.FieldTime | models.FieldLatitude |
	models.FieldLongitude | models.FieldProduct | models.FieldCategory | models.FieldQuantity | models.FieldPrice

func sale(day string, clock string, lat, lon float64, product, category string, qty, price float64) models.Transaction {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return models.Transaction{
		Date:        d,
		Time:        clock,
		Latitude:    lat,
		Longitude:   lon,
		ProductName: product,
		Category:    category,
		Quantity:    qty,
		UnitPrice:   price,
		Present:     allFields,
	}
}

func table(rows ...models.Transaction) *dataset.Table {
	return &dataset.Table{Name: "test.csv", Columns: dataset.DashboardColumns, Rows: rows}
}

// foodMedicine is six sales: three Food with revenues 100, 200, 300 and
// three Medicine with revenue 50 each.
func foodMedicine() *dataset.Table {
	return table(
		sale("2024-01-01", "9:00 AM", 19.4320, -99.1330, "Arroz", "Food", 1, 100),
		sale("2024-01-02", "10:00 AM", 19.4321, -99.1331, "Frijol", "Food", 2, 100),
		sale("2024-02-01", "11:00 AM", 19.4322, -99.1332, "Arroz", "Food", 3, 100),
		sale("2024-02-02", "1:00 PM", 19.5000, -99.2000, "Gasa", "Medicine", 1, 50),
		sale("2024-02-03", "2:00 PM", 19.5001, -99.2001, "Paracetamol", "Medicine", 1, 50),
		sale("2024-03-04", "3:00 PM", 19.5002, -99.2002, "Gasa", "Medicine", 1, 50),
	)
}

func TestAggregateFirstSeenOrder(t *testing.T) {
	rows := []models.Transaction{
		sale("2024-01-01", "", 0, 0, "B", "x", 1, 2),
		sale("2024-01-01", "", 0, 0, "A", "x", 2, 3),
		sale("2024-01-01", "", 0, 0, "B", "x", 3, 4),
	}
	got := Aggregate(rows, ByProduct)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Key())
	assert.Equal(t, 4.0, got[0].Quantity)
	assert.Equal(t, 14.0, got[0].Revenue)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, 3.0, got[0].MeanPrice())
	assert.Equal(t, "A", got[1].Key())
}

func TestAggregateSkipsRowsWithoutKey(t *testing.T) {
	missing := sale("2024-01-01", "", 0, 0, "", "x", 5, 5)
	missing.Present &^= models.FieldProduct
	rows := []models.Transaction{sale("2024-01-01", "", 0, 0, "A", "x", 1, 1), missing}

	got := Aggregate(rows, ByProduct)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Count)

	assert.Equal(t, 2, Total(rows).Count)
}

func TestAggregateMultipleKeys(t *testing.T) {
	got := Aggregate(foodMedicine().Rows, ByCategory, ByMonth)
	keys := make([][]string, len(got))
	for i, r := range got {
		keys[i] = r.Keys
	}
	assert.Equal(t, [][]string{
		{"Food", "2024-01"},
		{"Food", "2024-02"},
		{"Medicine", "2024-02"},
		{"Medicine", "2024-03"},
	}, keys)
}

func TestRevenueDerivation(t *testing.T) {
	tx := sale("2024-01-01", "9:00 AM", 1, 1, "P", "C", 3, 10)
	assert.Equal(t, 30.0, tx.Revenue())

	tbl := table(tx)
	cats, err := BuildCategoryReport(tbl)
	require.NoError(t, err)
	trend, err := BuildTrendSeries(tbl)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cats.PerCategory[0].Revenue)
	assert.Equal(t, 30.0, trend.Monthly[0].Revenue)
}

func TestTopNTieBreak(t *testing.T) {
	type item struct {
		name string
		v    float64
	}
	items := []item{{"A", 5}, {"B", 5}, {"C", 1}, {"D", 9}}
	metric := func(i item) float64 { return i.v }

	assert.Equal(t, []item{{"A", 5}}, TopN(items[:2], 1, metric))
	assert.Equal(t, []item{{"D", 9}, {"A", 5}, {"B", 5}}, TopN(items, 3, metric))
	assert.Len(t, TopN(items, 0, metric), 4)
	assert.Equal(t, "A", items[0].name, "input must not be reordered")
}

func TestGrowth(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"empty", nil, []float64{}},
		{"single", []float64{7}, []float64{0}},
		{"zero guard", []float64{0, 5}, []float64{0, 0}},
		{"up and down", []float64{100, 150, 75}, []float64{0, 50, -50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Growth(tt.in))
		})
	}
}

func TestCategoryReportEndToEnd(t *testing.T) {
	report, err := BuildCategoryReport(foodMedicine())
	require.NoError(t, err)
	require.Len(t, report.PerCategory, 2)

	food, medicine := report.PerCategory[0], report.PerCategory[1]
	assert.Equal(t, "Food", food.Category)
	assert.Equal(t, 600.0, food.Revenue)
	assert.Equal(t, 6.0, food.Quantity)
	assert.Equal(t, 66.67, food.QuantityShare)
	assert.Equal(t, 80.0, food.RevenueShare)
	assert.Equal(t, "Medicine", medicine.Category)
	assert.Equal(t, 150.0, medicine.Revenue)
	assert.Equal(t, 33.33, medicine.QuantityShare)
	assert.Equal(t, 20.0, medicine.RevenueShare)

	var quantityShares float64
	for _, c := range report.PerCategory {
		quantityShares += c.QuantityShare
	}
	assert.InDelta(t, 100, quantityShares, 0.1)

	require.Len(t, report.TopProductsByCategory, 2)
	foodTop := report.TopProductsByCategory[0].TopProducts
	require.Len(t, foodTop, 2)
	assert.Equal(t, models.ProductTotal{Product: "Arroz", Quantity: 4, Revenue: 400}, foodTop[0])
	medTop := report.TopProductsByCategory[1].TopProducts
	assert.Equal(t, "Gasa", medTop[0].Product)
}

func TestCategoryShareSumsToHundred(t *testing.T) {
	var rows []models.Transaction
	cats := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i := range 50 {
		rows = append(rows, sale("2024-01-01", "", 1, 1, "p", cats[i%len(cats)], float64(i%3+1), float64(i%5+1)))
	}
	report, err := BuildCategoryReport(table(rows...))
	require.NoError(t, err)

	var q, r float64
	for _, c := range report.PerCategory {
		q += c.QuantityShare
		r += c.RevenueShare
	}
	assert.InDelta(t, 100, q, 0.1)
	assert.InDelta(t, 100, r, 0.1)
}

func TestTrendReport(t *testing.T) {
	report, err := BuildTrendReport(foodMedicine(), temporal.Monthly, MetricRevenue, DefaultTrendLimit)
	require.NoError(t, err)

	assert.Equal(t, "monthly", report.Period)
	assert.Equal(t, "revenue", report.Metric)
	assert.Equal(t, []models.GrowthPoint{
		{Period: "2024-01", Value: 300, GrowthPct: 0},
		{Period: "2024-02", Value: 400, GrowthPct: 33.33},
		{Period: "2024-03", Value: 50, GrowthPct: -87.5},
	}, report.Points)
}

func TestTrendReportLimitAppliesBeforeGrowth(t *testing.T) {
	report, err := BuildTrendReport(foodMedicine(), temporal.Monthly, MetricTransactions, 2)
	require.NoError(t, err)
	require.Len(t, report.Points, 2)
	assert.Equal(t, "2024-02", report.Points[0].Period)
	assert.Equal(t, 0.0, report.Points[0].GrowthPct)
	assert.Equal(t, -66.67, report.Points[1].GrowthPct)
}

func TestTrendSeriesWindows(t *testing.T) {
	var rows []models.Transaction
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 120 {
		rows = append(rows, sale(start.AddDate(0, 0, i).Format("2006-01-02"), "", 1, 1, "p", "c", 1, 1))
	}
	series, err := BuildTrendSeries(table(rows...))
	require.NoError(t, err)

	assert.Len(t, series.Daily, 30)
	assert.Equal(t, "2024-04-29", series.Daily[29].Period)
	assert.Len(t, series.Weekly, 12)
	assert.Equal(t, "2024-W18", series.Weekly[11].Period)
	assert.Len(t, series.Monthly, 4)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("Ingresos")
	require.NoError(t, err)
	assert.Equal(t, MetricRevenue, m)
	_, err = ParseMetric("profit")
	assert.Error(t, err)
}

func TestZoneReport(t *testing.T) {
	tbl := table(
		sale("2024-01-01", "", 10.000, 10.000, "Arroz", "Food", 2, 10),
		sale("2024-01-01", "", 10.001, 10.001, "Arroz", "Food", 1, 10),
		sale("2024-01-01", "", 10.002, 10.000, "Gasa", "Medicine", 1, 5),
		sale("2024-01-01", "", 20.000, 20.000, "Gasa", "Medicine", 10, 5),
		sale("2024-01-01", "", 20.001, 20.001, "Gasa", "Medicine", 10, 5),
		sale("2024-01-01", "", 20.000, 20.002, "Venda", "Medicine", 10, 5),
		sale("2024-01-01", "", 40.000, 40.000, "Arroz", "Food", 100, 100),
	)
	report, err := BuildZoneReport(tbl, geo.Params{Eps: 0.005, MinSamples: 3})
	require.NoError(t, err)

	require.Len(t, report.Zones, 2)
	assert.Equal(t, 1, report.NoisePoints)

	z0 := report.Zones[0]
	assert.Equal(t, 0, z0.Zone)
	assert.Equal(t, 3, z0.Density)
	assert.Equal(t, 35.0, z0.Revenue)
	assert.Equal(t, 11.67, z0.AverageRevenuePerSale)
	assert.Equal(t, "Food", z0.DominantCategory)
	assert.Equal(t, "Arroz", z0.TopProducts[0].Product)
	assert.InDelta(t, 10.001, z0.Latitude, 1e-9)
	assert.Greater(t, z0.RadiusMeters, 0.0)

	z1 := report.Zones[1]
	assert.Equal(t, 150.0, z1.Revenue)
	assert.Equal(t, "Medicine", z1.DominantCategory)

	assert.Equal(t, []int{1, 0}, rankedZones(report.Rankings.ByRevenue))
	assert.Equal(t, []int{1, 0}, rankedZones(report.Rankings.ByQuantity))
	assert.Equal(t, []int{0, 1}, rankedZones(report.Rankings.ByDensity), "equal density keeps zone order")

	assert.Equal(t, []models.ZoneCategory{
		{Zone: 0, Category: "Food", Quantity: 3, Revenue: 30},
		{Zone: 0, Category: "Medicine", Quantity: 1, Revenue: 5},
		{Zone: 1, Category: "Medicine", Quantity: 30, Revenue: 150},
	}, report.ZoneCategory)
}

func rankedZones(entries []models.ZoneRankEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Zone
	}
	return out
}

func TestZoneReportAllNoise(t *testing.T) {
	tbl := table(
		sale("2024-01-01", "", 0, 0, "a", "c", 1, 1),
		sale("2024-01-01", "", 1, 1, "a", "c", 1, 1),
	)
	report, err := BuildZoneReport(tbl, geo.Params{Eps: 0.01, MinSamples: 2})
	require.NoError(t, err)
	assert.Empty(t, report.Zones)
	assert.Empty(t, report.Rankings.ByRevenue)
	assert.Equal(t, 2, report.NoisePoints)
}

func TestZoneReportInvalidParams(t *testing.T) {
	_, err := BuildZoneReport(foodMedicine(), geo.Params{Eps: 0, MinSamples: 3})
	assert.ErrorIs(t, err, geo.ErrInvalidParams)
}

func TestHeatmapReport(t *testing.T) {
	// 2024-01-01 is a Monday and 2024-01-07 a Sunday; the second sale sits
	// on the top edge of both ranges
	tbl := table(
		sale("2024-01-01", "9:15 AM", 0, 0, "a", "c", 1, 10),
		sale("2024-01-01", "9:45 AM", 10, 10, "a", "c", 2, 10),
		sale("2024-01-07", "11:00 PM", 5, 5, "a", "c", 1, 5),
		sale("2024-01-02", "whenever", 5, 5, "a", "c", 1, 1),
	)
	report, err := BuildHeatmapReport(tbl)
	require.NoError(t, err)

	assert.Equal(t, []models.TemporalCell{
		{Weekday: "Monday", Hour: 9, Revenue: 30},
		{Weekday: "Sunday", Hour: 23, Revenue: 5},
	}, report.Temporal)

	require.Len(t, report.Geographic, 3)
	assert.Equal(t, 0, report.Geographic[0].LatBin)
	assert.Equal(t, 5, report.Geographic[1].LatBin)
	assert.Equal(t, 2, report.Geographic[1].Transactions, "the bad clock row still counts geographically")
	assert.Equal(t, 9, report.Geographic[2].LatBin)
	assert.Equal(t, 9, report.Geographic[2].LonBin)
	assert.Equal(t, "[9.0000, 10.0000]", report.Geographic[2].LatRange)

	var total float64
	for _, c := range report.Geographic {
		total += c.Revenue
	}
	assert.Equal(t, 36.0, total)
}

func TestHeatmapSinglePoint(t *testing.T) {
	report, err := BuildHeatmapReport(table(sale("2024-01-01", "9:00 AM", 3, 4, "a", "c", 1, 1)))
	require.NoError(t, err)
	require.Len(t, report.Geographic, 1)
	assert.Equal(t, 0, report.Geographic[0].LatBin)
	assert.Equal(t, 0, report.Geographic[0].LonBin)
}

func TestSummary(t *testing.T) {
	report, err := defaultEngine.BuildSummary(foodMedicine(), geo.Params{Eps: 0.01, MinSamples: 2})
	require.NoError(t, err)

	assert.Equal(t, models.SummaryTotals{TotalSales: 6, TotalRevenue: 750, AverageTicket: 125}, report.Totals)
	assert.Equal(t, []models.CategorySummary{
		{Category: "Food", Sales: 3, Revenue: 600},
		{Category: "Medicine", Sales: 3, Revenue: 150},
	}, report.ByCategory)
	assert.Equal(t, models.NamedCount{Name: "Arroz", Count: 2}, report.PopularProducts[0])
	assert.Equal(t, models.NamedCount{Name: "Gasa", Count: 2}, report.PopularProducts[1])

	require.Len(t, report.WeekdayTrend, 7)
	assert.Equal(t, "Monday", report.WeekdayTrend[0].Name)
	assert.Equal(t, 2, report.WeekdayTrend[0].Count) // 2024-01-01 and 2024-03-04
	assert.Equal(t, 0, report.WeekdayTrend[2].Count)
	assert.Equal(t, "Sunday", report.WeekdayTrend[6].Name)

	assert.Equal(t, []models.ZoneActivity{{Zone: 0, Sales: 3}, {Zone: 1, Sales: 3}}, report.ActiveZones)
}

func TestSummaryWithoutCoordinates(t *testing.T) {
	rows := foodMedicine().Rows
	for i := range rows {
		rows[i].Present &^= models.FieldCoordinates
	}
	tbl := &dataset.Table{Columns: dataset.SummaryColumns, Rows: rows}
	report, err := defaultEngine.BuildSummary(tbl, geo.Params{Eps: 0.01, MinSamples: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, report.Totals.TotalSales)
	assert.Empty(t, report.ActiveZones)
}

func TestMapData(t *testing.T) {
	tbl := table(
		sale("2024-01-01", "", 0, 0, "a", "c", 1, 1),
		sale("2024-01-01", "", 0, 0.001, "b", "c", 2, 1),
		sale("2024-01-01", "", 0, 0.002, "a", "c", 3, 1),
		sale("2024-01-01", "", 50, 50, "a", "c", 4, 1),
	)
	data, err := defaultEngine.BuildMapData(tbl, geo.Params{Eps: 0.01, MinSamples: 2})
	require.NoError(t, err)

	require.Len(t, data.Points, 4)
	assert.Equal(t, Palette[0], data.Points[0].Color)
	assert.Equal(t, Palette[1], data.Points[1].Color)
	assert.Equal(t, Palette[0], data.Points[2].Color)
	assert.Equal(t, geo.Noise, data.Points[3].Cluster)
	assert.Equal(t, NoiseColor, data.Points[3].Color)

	assert.Equal(t, 4, data.Statistics.TotalRecords)
	assert.Equal(t, 2, data.Statistics.UniqueProducts)
	assert.Equal(t, 10.0, data.Statistics.TotalQuantity)
	assert.Equal(t, 1, data.Statistics.ClustersFound)
}

func TestProductAnalytics(t *testing.T) {
	report, err := BuildProductAnalytics(foodMedicine())
	require.NoError(t, err)
	require.Len(t, report.Products, 4)
	assert.Equal(t, "Arroz", report.Products[0].Product)
	assert.Equal(t, 4.0, report.Products[0].TotalQuantity)
	assert.Equal(t, 2.0, report.Products[0].AverageQuantity)
	assert.Equal(t, 9.0, report.TotalSales)
	assert.Equal(t, 1.5, report.AverageSale)
}

func TestDashboardSharesOneCleanedTable(t *testing.T) {
	tbl := foodMedicine()
	noClock := sale("2024-01-03", "", 19.4323, -99.1333, "Arroz", "Food", 5, 100)
	noClock.Present &^= models.FieldTime
	tbl.Rows = append(tbl.Rows, noClock)

	zone := geo.Params{Eps: 0.005, MinSamples: 3}
	dash, err := defaultEngine.BuildDashboard(tbl, zone)
	require.NoError(t, err)

	assert.Equal(t, 6, dash.Statistics.TotalSales)
	var categorySales, monthlySales int
	for _, c := range dash.Categories.PerCategory {
		categorySales += c.Transactions
	}
	for _, m := range dash.Trends.Monthly {
		monthlySales += m.Transactions
	}
	assert.Equal(t, 6, categorySales)
	assert.Equal(t, 6, monthlySales)
	assert.Equal(t, len(dash.Zones.Zones), dash.Statistics.ZonesIdentified)

	charts, err := defaultEngine.BuildCharts(tbl, zone)
	require.NoError(t, err)
	assert.Equal(t, 7, charts.Statistics.TotalSales, "charts do not need the clock column")

	again, err := defaultEngine.BuildDashboard(tbl, zone)
	require.NoError(t, err)
	assert.Equal(t, dash, again)
}

func TestStatisticsPeriod(t *testing.T) {
	charts, err := defaultEngine.BuildCharts(foodMedicine(), geo.Params{Eps: 0.005, MinSamples: 3})
	require.NoError(t, err)
	assert.Equal(t, models.DataPeriod{Start: "2024-01-01", End: "2024-03-04", TotalDays: 63}, charts.Statistics.Period)
	assert.Equal(t, 2, charts.Statistics.ActiveCategories)
	assert.Equal(t, 4, charts.Statistics.UniqueProducts)
	assert.Equal(t, 125.0, charts.Statistics.AverageTicket)
}

func TestEmptyInput(t *testing.T) {
	bad := sale("2024-01-01", "9:00 AM", 0, 0, "a", "c", 1, 1)
	bad.Present &^= models.FieldQuantity
	tbl := table(bad)

	_, err := BuildCategoryReport(tbl)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = BuildTrendSeries(tbl)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = BuildHeatmapReport(tbl)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = defaultEngine.BuildDashboard(tbl, geo.Params{Eps: 0.01, MinSamples: 2})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSchemaErrorPassesThrough(t *testing.T) {
	tbl := &dataset.Table{Columns: []string{dataset.ColumnDate, dataset.ColumnQuantity}}
	_, err := BuildTrendSeries(tbl)
	var schemaErr *dataset.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{dataset.ColumnPrice}, schemaErr.Missing)
}

func BenchmarkBuildDashboard(b *testing.B) {
	var rows []models.Transaction
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cats := []string{"Food", "Medicine", "Drinks"}
	for i := range 5000 {
		rows = append(rows, sale(start.AddDate(0, 0, i%90).Format("2006-01-02"), "10:00 AM",
			19+float64(i%50)*0.001, -99+float64(i%70)*0.001, "p", cats[i%3], 1, 10))
	}
	tbl := table(rows...)
	zone := geo.Params{Eps: 0.005, MinSamples: 3}
	for b.Loop() {
		if _, err := defaultEngine.BuildDashboard(tbl, zone); err != nil {
			b.Fatal(err)
		}
	}
}
