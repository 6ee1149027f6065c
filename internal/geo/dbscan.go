package geo

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Noise labels a point that belongs to no dense region.
const Noise = -1

const unclassified = -2

// MinEps is the smallest radius accepted. Below it a coordinate divided by
// eps no longer fits a grid cell index exactly.
const MinEps = 1e-9

var ErrInvalidParams = errors.New("invalid clustering parameters")

// Point is a coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Params are the two DBSCAN knobs. Eps is a planar distance in degrees and
// MinSamples counts the point itself.
type Params struct {
	Eps        float64 `json:"eps"`
	MinSamples int     `json:"min_samples"`
}

func (p Params) Validate() error {
	if math.IsNaN(p.Eps) || math.IsInf(p.Eps, 0) || p.Eps <= 0 {
		return fmt.Errorf("%w: eps must be a positive number, got %v", ErrInvalidParams, p.Eps)
	}
	if p.Eps < MinEps {
		return fmt.Errorf("%w: eps must be at least %g, got %v", ErrInvalidParams, MinEps, p.Eps)
	}
	if p.MinSamples < 1 {
		return fmt.Errorf("%w: min_samples must be at least 1, got %d", ErrInvalidParams, p.MinSamples)
	}
	return nil
}

// Labeler assigns a zone label to every point.
type Labeler interface {
	Labels(points []Point, p Params) ([]int, error)
}

// DBSCAN is the default Labeler.
type DBSCAN struct{}

func (DBSCAN) Labels(points []Point, p Params) ([]int, error) {
	return Cluster(points, p)
}

// Cluster runs density-based clustering over points. Labels are dense from 0
// in the order clusters are discovered while scanning the input, so the same
// input always yields the same labels. Empty input yields no labels.
func Cluster(points []Point, p Params) ([]int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	labels := make([]int, len(points))
	if len(points) == 0 {
		return labels, nil
	}
	for i := range labels {
		labels[i] = unclassified
	}

	idx := newGridIndex(points, p.Eps)
	cluster := 0

	// A point is labeled as soon as it is queued, so each index enters the
	// queue at most once and the queue never outgrows the input.
	var (
		buf   []int
		queue []int
	)
	claim := func(neighbors []int) {
		for _, j := range neighbors {
			switch labels[j] {
			case Noise:
				// border point, reachable but not core
				labels[j] = cluster
			case unclassified:
				labels[j] = cluster
				queue = append(queue, j)
			}
		}
	}

	for i := range points {
		if labels[i] != unclassified {
			continue
		}
		buf = idx.neighbors(i, buf[:0])
		if len(buf) < p.MinSamples {
			labels[i] = Noise
			continue
		}

		labels[i] = cluster
		queue = queue[:0]
		claim(buf)
		for k := 0; k < len(queue); k++ {
			buf = idx.neighbors(queue[k], buf[:0])
			if len(buf) >= p.MinSamples {
				claim(buf)
			}
		}
		cluster++
	}
	return labels, nil
}

// CountClusters returns the number of distinct non-noise labels.
func CountClusters(labels []int) int {
	n := 0
	for _, l := range labels {
		if l != Noise && l+1 > n {
			n = l + 1
		}
	}
	return n
}

type cellKey struct {
	lat int64
	lon int64
}

// gridIndex buckets points into eps-sized cells so a neighbor query only
// scans the 3x3 block around a point.
type gridIndex struct {
	points []Point
	eps    float64
	eps2   float64
	cells  map[cellKey][]int
}

func newGridIndex(points []Point, eps float64) *gridIndex {
	g := &gridIndex{
		points: points,
		eps:    eps,
		eps2:   eps * eps,
		cells:  make(map[cellKey][]int),
	}
	for i, pt := range points {
		k := g.key(pt)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *gridIndex) key(pt Point) cellKey {
	return cellKey{lat: int64(math.Floor(pt.Lat / g.eps)), lon: int64(math.Floor(pt.Lon / g.eps))}
}

// neighbors appends the indices within eps of point i, itself included, to
// out in ascending index order.
func (g *gridIndex) neighbors(i int, out []int) []int {
	pt := g.points[i]
	center := g.key(pt)
	for dLat := int64(-1); dLat <= 1; dLat++ {
		for dLon := int64(-1); dLon <= 1; dLon++ {
			for _, j := range g.cells[cellKey{lat: center.lat + dLat, lon: center.lon + dLon}] {
				dy := g.points[j].Lat - pt.Lat
				dx := g.points[j].Lon - pt.Lon
				if dy*dy+dx*dx <= g.eps2 {
					out = append(out, j)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}
