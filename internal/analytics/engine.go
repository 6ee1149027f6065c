package analytics

import (
	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/models"
)

// Engine builds the reports that depend on clustering. The labeler is the
// only thing it holds, so one Engine may serve concurrent calls.
type Engine struct {
	labeler geo.Labeler
}

func NewEngine(labeler geo.Labeler) *Engine {
	if labeler == nil {
		labeler = geo.DBSCAN{}
	}
	return &Engine{labeler: labeler}
}

var defaultEngine = NewEngine(nil)

// prepare validates and cleans t and rejects a table left without rows.
func prepare(t *dataset.Table, required []string) ([]models.Transaction, error) {
	cleaned, err := dataset.Prepare(t, required...)
	if err != nil {
		return nil, err
	}
	if cleaned.Len() == 0 {
		return nil, ErrEmptyInput
	}
	return cleaned.Rows, nil
}

func points(rows []models.Transaction) []geo.Point {
	out := make([]geo.Point, len(rows))
	for i, tx := range rows {
		out[i] = geo.Point{Lat: tx.Latitude, Lon: tx.Longitude}
	}
	return out
}

// cluster labels rows that carry coordinates. The returned slices are
// index-aligned with each other.
func (e *Engine) cluster(rows []models.Transaction, p geo.Params) ([]models.Transaction, []int, error) {
	located := dataset.WithCoordinates(rows)
	labels, err := e.labeler.Labels(points(located), p)
	if err != nil {
		return nil, nil, err
	}
	return located, labels, nil
}
