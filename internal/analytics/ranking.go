package analytics

import (
	"cmp"
	"math"
	"slices"
)

// TopN returns the n items with the largest metric. Equal metrics keep
// their input order. n <= 0 ranks every item.
func TopN[T any](items []T, n int, metric func(T) float64) []T {
	ranked := slices.Clone(items)
	slices.SortStableFunc(ranked, func(a, b T) int {
		return cmp.Compare(metric(b), metric(a))
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Growth returns the period-over-period percentage change of values.
// The first period and any period following a zero have growth 0.
func Growth(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		out[i] = (values[i] - prev) / prev * 100
	}
	return out
}

// Share is part as a percentage of total, 0 when total is 0.
func Share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// Ratio guards the division the same way Share does.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Tail keeps the last n items; n <= 0 keeps all of them.
func Tail[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
