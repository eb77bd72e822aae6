package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	blr := Point{Lat: 12.9716, Lon: 77.5946}

	t.Run("zero for identical points", func(t *testing.T) {
		assert.Zero(t, Haversine(blr, blr))
	})

	t.Run("symmetric", func(t *testing.T) {
		other := Point{Lat: 13.0827, Lon: 80.2707}
		assert.InDelta(t, Haversine(blr, other), Haversine(other, blr), 1e-9)
	})

	t.Run("known city-pair distance", func(t *testing.T) {
		// Bangalore to Chennai is roughly 290 km great-circle.
		chennai := Point{Lat: 13.0827, Lon: 80.2707}
		d := Haversine(blr, chennai)
		assert.InDelta(t, 290, d, 10)
	})
}

func TestBuildTour(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		tour := BuildTour(nil, Point{}, 3)
		assert.Empty(t, tour.Order)
		assert.Zero(t, tour.TotalKm)
		assert.Zero(t, tour.DurationMinutes)
	})

	t.Run("visits every point exactly once", func(t *testing.T) {
		points := []Point{
			{Lat: 12.98, Lon: 77.60},
			{Lat: 12.95, Lon: 77.58},
			{Lat: 13.01, Lon: 77.64},
			{Lat: 12.93, Lon: 77.55},
		}
		tour := BuildTour(points, Point{Lat: 12.9716, Lon: 77.5946}, 3)

		require.Len(t, tour.Order, len(points))
		require.Len(t, tour.Legs, len(points))
		seen := make(map[int]bool)
		for _, i := range tour.Order {
			assert.False(t, seen[i], "point %d visited twice", i)
			seen[i] = true
		}
	})

	t.Run("greedy picks nearest next", func(t *testing.T) {
		// Points laid on a line east of the start; nearest-neighbor from
		// the start must walk them in increasing longitude.
		start := Point{Lat: 12.97, Lon: 77.50}
		points := []Point{
			{Lat: 12.97, Lon: 77.56}, // third
			{Lat: 12.97, Lon: 77.52}, // first
			{Lat: 12.97, Lon: 77.54}, // second
		}
		tour := BuildTour(points, start, 3)
		assert.Equal(t, []int{1, 2, 0}, tour.Order)
	})

	t.Run("square from a corner walks the perimeter", func(t *testing.T) {
		// Start at one corner of a square; the walk must follow the sides
		// and never cut a diagonal.
		start := Point{Lat: 0, Lon: 0}
		points := []Point{
			{Lat: 0, Lon: 0.01},    // adjacent corner
			{Lat: 0.01, Lon: 0.01}, // opposite corner
			{Lat: 0.01, Lon: 0},    // adjacent corner
		}
		tour := BuildTour(points, start, 3)

		assert.Equal(t, []int{0, 1, 2}, tour.Order)
		side := Haversine(start, points[0])
		assert.InDelta(t, 3*side, tour.TotalKm, side*0.01)
	})

	t.Run("tie breaks toward earlier index", func(t *testing.T) {
		start := Point{Lat: 0, Lon: 0}
		// Two points equidistant from the start.
		points := []Point{
			{Lat: 0, Lon: 0.01},
			{Lat: 0, Lon: -0.01},
		}
		tour := BuildTour(points, start, 3)
		assert.Equal(t, 0, tour.Order[0])
	})

	t.Run("total equals sum of legs, duration rounds up", func(t *testing.T) {
		points := []Point{
			{Lat: 12.98, Lon: 77.60},
			{Lat: 12.95, Lon: 77.58},
			{Lat: 13.01, Lon: 77.64},
		}
		tour := BuildTour(points, Point{Lat: 12.9716, Lon: 77.5946}, 3)

		sum := 0.0
		for _, leg := range tour.Legs {
			sum += leg
		}
		assert.InDelta(t, sum, tour.TotalKm, 1e-9)
		assert.GreaterOrEqual(t, float64(tour.DurationMinutes), tour.TotalKm*3)
		assert.Less(t, float64(tour.DurationMinutes), tour.TotalKm*3+1)
	})
}
