package aurora

import "math"

// NearestProbability returns the probability of the grid point nearest to
// coord, by Euclidean distance in (longitude, latitude) degree space. The
// comparison is strict, so on a distance tie the earlier point in the grid
// sequence wins. An absent or empty grid yields 0: the grid is best-effort
// auxiliary data, not an error condition.
//
// The scan is linear. The grid is a few thousand points at most and a spatial
// index would not pay for itself here.
func NearestProbability(coord Coordinate, grid OvationGrid) float64 {
	minDistance := math.Inf(1)
	probability := 0.0

	for _, p := range grid.Coordinates {
		d := math.Hypot(coord.Lat-p.Lat, coord.Lon-p.Lon)
		if d < minDistance {
			minDistance = d
			probability = p.Probability
		}
	}

	return probability
}
