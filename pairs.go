package feedprep

import (
	"math"

	"github.com/lmichelin/feedprep/geo"
)

// Pair is two rows within pairing distance of each other, along with the
// great-circle distance between them in meters.
type Pair[T any] struct {
	Left     T
	Right    T
	Distance float64
}

// Pairs finds every pair of rows at most maxDistance meters apart. Each
// qualifying pair is returned in both orientations; selfPairs additionally
// emits each row paired with itself at distance zero.
//
// Rows are bucketed into a degree grid sized so that any two rows within
// maxDistance land in the same or an adjacent cell, so only a 3x3 cell
// neighborhood is scanned per row. The grid does not wrap at the 180th
// meridian, so rows on opposite sides of it are never paired.
func Pairs[T any](rows []T, position func(T) (lon, lat float64), maxDistance float64, selfPairs bool) []Pair[T] {
	if len(rows) == 0 || maxDistance <= 0 {
		return nil
	}

	// The longitude width of a degree shrinks toward the poles, so size
	// cells at the most extreme latitude present to keep them wide enough
	// everywhere.
	maxAbsLat := 0.0
	for _, row := range rows {
		_, lat := position(row)
		if abs := math.Abs(lat); abs > maxAbsLat {
			maxAbsLat = abs
		}
	}
	cellLat, cellLon := geo.BoundingBoxRadius(maxAbsLat, maxDistance)

	type cell struct{ x, y int }
	cellOf := func(row T) cell {
		lon, lat := position(row)
		return cell{
			x: int(math.Floor(lon / cellLon)),
			y: int(math.Floor(lat / cellLat)),
		}
	}
	grid := map[cell][]int{}
	for i, row := range rows {
		c := cellOf(row)
		grid[c] = append(grid[c], i)
	}

	var pairs []Pair[T]
	for i, row := range rows {
		lon, lat := position(row)
		c := cellOf(row)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, j := range grid[cell{c.x + dx, c.y + dy}] {
					if i == j {
						if selfPairs {
							pairs = append(pairs, Pair[T]{Left: row, Right: rows[j]})
						}
						continue
					}
					otherLon, otherLat := position(rows[j])
					d := geo.Haversine(lat, lon, otherLat, otherLon)
					if d <= maxDistance {
						pairs = append(pairs, Pair[T]{Left: row, Right: rows[j], Distance: d})
					}
				}
			}
		}
	}
	return pairs
}
