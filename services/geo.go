package services

import (
	"math"
)

const earthRadiusKm = 6371.0

// Point is a geographic coordinate (latitude, longitude in degrees).
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance between two points in
// kilometers. Symmetric, zero for identical points. Adequate at city scale;
// not geodesic-exact over long spans.
func Haversine(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Tour is the output of BuildTour. Order holds indices into the input slice
// in visit order; Legs[i] is the distance travelled to reach Order[i] from
// the previous position (the start point for i == 0).
type Tour struct {
	Order           []int
	Legs            []float64
	TotalKm         float64
	DurationMinutes int
}

// Plan a visiting order using a greedy nearest-neighbor walk.
//
// At each step the unvisited point with minimum distance from the current
// position is selected; ties break toward the earlier input index, so the
// result is deterministic for a given input order. O(n^2), fine for the
// tens of stops a single agent carries. No global optimization is attempted.
func BuildTour(points []Point, start Point, minutesPerKm float64) Tour {
	n := len(points)
	tour := Tour{
		Order: make([]int, 0, n),
		Legs:  make([]float64, 0, n),
	}
	if n == 0 {
		return tour
	}

	visited := make([]bool, n)
	current := start
	total := 0.0

	for len(tour.Order) < n {
		best := -1
		bestDist := math.MaxFloat64
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			// Strict less keeps the first-encountered point on ties.
			if d := Haversine(current, points[i]); d < bestDist {
				bestDist = d
				best = i
			}
		}
		visited[best] = true
		tour.Order = append(tour.Order, best)
		tour.Legs = append(tour.Legs, bestDist)
		total += bestDist
		current = points[best]
	}

	tour.TotalKm = total
	tour.DurationMinutes = int(math.Ceil(total * minutesPerKm))
	return tour
}
