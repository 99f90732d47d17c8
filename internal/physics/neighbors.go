package physics

import "github.com/san-kum/helixflock/internal/dynamo"

// Neighbors returns the indices j != i whose distance to positions[i] is
// strictly below radius, in index order.
func Neighbors(positions []dynamo.Vec3, i int, radius float64) []int {
	var out []int
	for j := range positions {
		if j == i {
			continue
		}
		if dynamo.Distance(positions[i], positions[j]) < radius {
			out = append(out, j)
		}
	}
	return out
}

// Pairs returns every unordered pair (i < j) closer than radius.
func Pairs(positions []dynamo.Vec3, radius float64) [][2]int {
	var out [][2]int
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			if dynamo.Distance(positions[i], positions[j]) < radius {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}
