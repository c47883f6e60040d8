package engine

import "qdeck/ops"

// Topology describes which physical qubits may interact directly.
type Topology interface {
	Size() int
	Neighbors(p ops.QubitID) []ops.QubitID
}

// LinearChain is a line of N qubits, closed into a ring when Cyclic is set.
type LinearChain struct {
	N      int
	Cyclic bool
}

func (c LinearChain) Size() int { return c.N }

func (c LinearChain) Neighbors(p ops.QubitID) []ops.QubitID {
	var out []ops.QubitID
	n := ops.QubitID(c.N)
	if p > 0 {
		out = append(out, p-1)
	} else if c.Cyclic && n > 2 {
		out = append(out, n-1)
	}
	if p < n-1 {
		out = append(out, p+1)
	} else if c.Cyclic && n > 2 {
		out = append(out, 0)
	}
	return out
}

// Grid is a Rows×Cols lattice numbered row by row.
type Grid struct {
	Rows, Cols int
}

func (g Grid) Size() int { return g.Rows * g.Cols }

func (g Grid) Neighbors(p ops.QubitID) []ops.QubitID {
	r, c := int(p)/g.Cols, int(p)%g.Cols
	var out []ops.QubitID
	for _, d := range [][2]int{{-1, 0}, {0, -1}, {0, 1}, {1, 0}} {
		nr, nc := r+d[0], c+d[1]
		if nr >= 0 && nr < g.Rows && nc >= 0 && nc < g.Cols {
			out = append(out, ops.QubitID(nr*g.Cols+nc))
		}
	}
	return out
}

// Adjacent reports whether a and b are direct neighbors.
func Adjacent(t Topology, a, b ops.QubitID) bool {
	for _, n := range t.Neighbors(a) {
		if n == b {
			return true
		}
	}
	return false
}

// ShortestPath returns a breadth-first path from one physical qubit to
// another, both ends included, or nil when none exists.
func ShortestPath(t Topology, from, to ops.QubitID) []ops.QubitID {
	if from == to {
		return []ops.QubitID{from}
	}
	prev := map[ops.QubitID]ops.QubitID{from: from}
	queue := []ops.QubitID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range t.Neighbors(cur) {
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = cur
			if n == to {
				var path []ops.QubitID
				for p := to; p != from; p = prev[p] {
					path = append(path, p)
				}
				path = append(path, from)
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			queue = append(queue, n)
		}
	}
	return nil
}
