package analytics

import (
	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/models"
)

// BuildCharts assembles trend, category, zone and statistics reports from a
// single validated and cleaned copy of t.
func (e *Engine) BuildCharts(t *dataset.Table, zoneParams geo.Params) (models.ChartsReport, error) {
	if err := zoneParams.Validate(); err != nil {
		return models.ChartsReport{}, err
	}
	rows, err := prepare(t, dataset.ChartColumns)
	if err != nil {
		return models.ChartsReport{}, err
	}
	return e.charts(rows, zoneParams)
}

func (e *Engine) charts(rows []models.Transaction, zoneParams geo.Params) (models.ChartsReport, error) {
	zones, err := e.zoneReport(rows, zoneParams)
	if err != nil {
		return models.ChartsReport{}, err
	}
	return models.ChartsReport{
		Trends:     trendSeries(rows),
		Categories: categoryReport(rows),
		Zones:      zones,
		Statistics: statistics(rows, len(zones.Zones)),
	}, nil
}

// BuildDashboard is BuildCharts plus the heatmap. The clock column is
// required so every report sees the same rows.
func (e *Engine) BuildDashboard(t *dataset.Table, zoneParams geo.Params) (models.DashboardReport, error) {
	if err := zoneParams.Validate(); err != nil {
		return models.DashboardReport{}, err
	}
	rows, err := prepare(t, dataset.DashboardColumns)
	if err != nil {
		return models.DashboardReport{}, err
	}
	charts, err := e.charts(rows, zoneParams)
	if err != nil {
		return models.DashboardReport{}, err
	}
	return models.DashboardReport{ChartsReport: charts, Heatmap: heatmapReport(rows)}, nil
}
