package models

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TrendPoint struct {
	Period       string  `json:"period"`
	Quantity     float64 `json:"quantity"`
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
}

type TrendSeries struct {
	Monthly []TrendPoint `json:"monthly"`
	Weekly  []TrendPoint `json:"weekly"`
	Daily   []TrendPoint `json:"daily"`
}

type GrowthPoint struct {
	Period    string  `json:"period"`
	Value     float64 `json:"value"`
	GrowthPct float64 `json:"growth_pct"`
}

type TrendReport struct {
	Period string        `json:"period"`
	Metric string        `json:"metric"`
	Limit  int           `json:"limit"`
	Points []GrowthPoint `json:"points"`
}

type CategoryTotal struct {
	Category      string  `json:"category"`
	Quantity      float64 `json:"quantity"`
	Revenue       float64 `json:"revenue"`
	Transactions  int     `json:"transactions"`
	AveragePrice  float64 `json:"average_price"`
	QuantityShare float64 `json:"quantity_share"`
	RevenueShare  float64 `json:"revenue_share"`
}

type ProductTotal struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type CategoryProducts struct {
	Category    string         `json:"category"`
	TopProducts []ProductTotal `json:"top_products"`
}

type CategoryReport struct {
	PerCategory           []CategoryTotal    `json:"per_category"`
	TopProductsByCategory []CategoryProducts `json:"top_products_by_category"`
}

type Zone struct {
	Zone                  int            `json:"zone"`
	Quantity              float64        `json:"quantity"`
	Revenue               float64        `json:"revenue"`
	Transactions          int            `json:"transactions"`
	AveragePrice          float64        `json:"average_price"`
	Latitude              float64        `json:"latitude"`
	Longitude             float64        `json:"longitude"`
	AverageRevenuePerSale float64        `json:"average_revenue_per_sale"`
	Density               int            `json:"density"`
	DominantCategory      string         `json:"dominant_category"`
	TopProducts           []ProductTotal `json:"top_products"`
	RadiusMeters          float64        `json:"radius_m"`
}

type ZoneRankEntry struct {
	Zone      int     `json:"zone"`
	Value     float64 `json:"value"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ZoneRankings struct {
	ByRevenue  []ZoneRankEntry `json:"by_revenue"`
	ByQuantity []ZoneRankEntry `json:"by_quantity"`
	ByDensity  []ZoneRankEntry `json:"by_density"`
}

type ZoneCategory struct {
	Zone     int     `json:"zone"`
	Category string  `json:"category"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type ZoneReport struct {
	Eps          float64        `json:"eps"`
	MinSamples   int            `json:"min_samples"`
	Zones        []Zone         `json:"zones"`
	Rankings     ZoneRankings   `json:"rankings"`
	ZoneCategory []ZoneCategory `json:"zone_x_category"`
	NoisePoints  int            `json:"noise_points"`
}

type GeoCell struct {
	LatBin       int     `json:"lat_bin"`
	LonBin       int     `json:"lon_bin"`
	LatRange     string  `json:"lat_range"`
	LonRange     string  `json:"lon_range"`
	Revenue      float64 `json:"revenue"`
	Quantity     float64 `json:"quantity"`
	Transactions int     `json:"transactions"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type TemporalCell struct {
	Weekday string  `json:"weekday"`
	Hour    int     `json:"hour"`
	Revenue float64 `json:"revenue"`
}

type HeatmapReport struct {
	Geographic []GeoCell      `json:"geographic"`
	Temporal   []TemporalCell `json:"temporal"`
}

type DataPeriod struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	TotalDays int    `json:"total_days"`
}

type Statistics struct {
	TotalSales       int        `json:"total_sales"`
	TotalRevenue     float64    `json:"total_revenue"`
	TotalQuantity    float64    `json:"total_quantity"`
	AverageTicket    float64    `json:"average_ticket"`
	AveragePrice     float64    `json:"average_price"`
	ActiveCategories int        `json:"active_categories"`
	UniqueProducts   int        `json:"unique_products"`
	ZonesIdentified  int        `json:"zones_identified"`
	Period           DataPeriod `json:"period"`
}

type ChartsReport struct {
	Trends     TrendSeries    `json:"trends"`
	Categories CategoryReport `json:"category_distribution"`
	Zones      ZoneReport     `json:"zone_performance"`
	Statistics Statistics     `json:"statistics"`
}

type DashboardReport struct {
	ChartsReport
	Heatmap HeatmapReport `json:"heatmap"`
}

type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type CategorySummary struct {
	Category string  `json:"category"`
	Sales    int     `json:"sales"`
	Revenue  float64 `json:"revenue"`
}

type ZoneActivity struct {
	Zone  int `json:"zone"`
	Sales int `json:"sales"`
}

type SummaryTotals struct {
	TotalSales    int     `json:"total_sales"`
	TotalRevenue  float64 `json:"total_revenue"`
	AverageTicket float64 `json:"average_ticket"`
}

type SummaryReport struct {
	Totals          SummaryTotals     `json:"totals"`
	ByCategory      []CategorySummary `json:"by_category"`
	PopularProducts []NamedCount      `json:"popular_products"`
	WeekdayTrend    []NamedCount      `json:"weekday_trend"`
	ActiveZones     []ZoneActivity    `json:"active_zones"`
}

type MapPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Product   string  `json:"product"`
	Quantity  float64 `json:"quantity"`
	Cluster   int     `json:"cluster"`
	Color     string  `json:"color"`
}

type MapStatistics struct {
	TotalRecords   int      `json:"total_records"`
	UniqueProducts int      `json:"unique_products"`
	TotalQuantity  float64  `json:"total_quantity"`
	ClustersFound  int      `json:"clusters_found"`
	Center         GeoPoint `json:"center"`
}

type MapData struct {
	Points     []MapPoint    `json:"points"`
	Statistics MapStatistics `json:"statistics"`
}

type ProductStat struct {
	Product         string   `json:"product"`
	TotalQuantity   float64  `json:"total_quantity"`
	AverageQuantity float64  `json:"average_quantity"`
	Sales           int      `json:"sales"`
	Center          GeoPoint `json:"geographic_center"`
}

type ProductAnalytics struct {
	Products         []ProductStat `json:"products"`
	TotalSales       float64       `json:"total_sales"`
	AverageSale      float64       `json:"average_sale"`
	GeographicCenter GeoPoint      `json:"geographic_center"`
}
