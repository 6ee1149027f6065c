package analytics

import (
	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/models"
)

// Palette assigns marker colors on the map.
var Palette = []string{
	"#8b5cf6", "#06b6d4", "#22c55e", "#f59e0b", "#ef4444",
	"#14b8a6", "#eab308", "#3b82f6", "#d946ef", "#f97316",
}

// NoiseColor marks points outside every zone.
const NoiseColor = "#9ca3af"

// BuildMapData returns one marker per sale with its zone label. Noise
// points stay in the output. Each (zone, product) pair gets the next
// palette color in the order it first appears.
func (e *Engine) BuildMapData(t *dataset.Table, p geo.Params) (models.MapData, error) {
	if err := p.Validate(); err != nil {
		return models.MapData{}, err
	}
	rows, err := prepare(t, dataset.MapColumns)
	if err != nil {
		return models.MapData{}, err
	}
	located, labels, err := e.cluster(rows, p)
	if err != nil {
		return models.MapData{}, err
	}

	type pair struct {
		zone    int
		product string
	}
	colors := make(map[pair]string)
	products := make(map[string]struct{})

	out := make([]models.MapPoint, len(located))
	for i, tx := range located {
		products[tx.ProductName] = struct{}{}
		color := NoiseColor
		if labels[i] != geo.Noise {
			k := pair{zone: labels[i], product: tx.ProductName}
			c, ok := colors[k]
			if !ok {
				c = Palette[len(colors)%len(Palette)]
				colors[k] = c
			}
			color = c
		}
		out[i] = models.MapPoint{
			Latitude:  tx.Latitude,
			Longitude: tx.Longitude,
			Product:   tx.ProductName,
			Quantity:  tx.Quantity,
			Cluster:   labels[i],
			Color:     color,
		}
	}

	total := Total(located)
	return models.MapData{
		Points: out,
		Statistics: models.MapStatistics{
			TotalRecords:   total.Count,
			UniqueProducts: len(products),
			TotalQuantity:  total.Quantity,
			ClustersFound:  geo.CountClusters(labels),
			Center:         total.Centroid(),
		},
	}, nil
}
