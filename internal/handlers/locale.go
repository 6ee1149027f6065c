package handlers

import (
	"strings"

	"geosales-dashboard/internal/models"
)

var spanishWeekdays = map[string]string{
	"Monday":    "Lunes",
	"Tuesday":   "Martes",
	"Wednesday": "Miércoles",
	"Thursday":  "Jueves",
	"Friday":    "Viernes",
	"Saturday":  "Sábado",
	"Sunday":    "Domingo",
}

func weekdayName(name, locale string) string {
	if !strings.EqualFold(locale, "es") {
		return name
	}
	if es, ok := spanishWeekdays[name]; ok {
		return es
	}
	return name
}

// localizeHeatmap returns a copy of report with weekday names translated.
// Reports are computed in English so ordering never depends on the locale.
func localizeHeatmap(report models.HeatmapReport, locale string) models.HeatmapReport {
	if !strings.EqualFold(locale, "es") {
		return report
	}
	cells := make([]models.TemporalCell, len(report.Temporal))
	for i, c := range report.Temporal {
		c.Weekday = weekdayName(c.Weekday, locale)
		cells[i] = c
	}
	report.Temporal = cells
	return report
}

func localizeSummary(report models.SummaryReport, locale string) models.SummaryReport {
	if !strings.EqualFold(locale, "es") {
		return report
	}
	trend := make([]models.NamedCount, len(report.WeekdayTrend))
	for i, d := range report.WeekdayTrend {
		d.Name = weekdayName(d.Name, locale)
		trend[i] = d
	}
	report.WeekdayTrend = trend
	return report
}
