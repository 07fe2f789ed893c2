package domain

import (
	"errors"
	"fmt"
	"math"
)

// Distance and travel duration for one directed pair of stops.
type TravelEdge struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Square, read-only table of travel edges indexed by stop position.
// It is built once per request and never mutated afterwards.
type TravelMatrix struct {
	n     int
	edges []TravelEdge
}

// NewTravelMatrix copies rows into a dense matrix.
// Ragged rows, negative values and NaN are rejected: a partial matrix is unusable.
func NewTravelMatrix(rows [][]TravelEdge) (*TravelMatrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, errors.New("travel matrix: no rows")
	}

	edges := make([]TravelEdge, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("travel matrix: row %d has %d entries, want %d", i, len(row), n)
		}
		for j, e := range row {
			if !validMetric(e.DistanceMeters) || !validMetric(e.DurationSeconds) {
				return nil, fmt.Errorf("travel matrix: invalid edge %d->%d (distance=%v duration=%v)", i, j, e.DistanceMeters, e.DurationSeconds)
			}
			edges = append(edges, e)
		}
	}

	return &TravelMatrix{n: n, edges: edges}, nil
}

func validMetric(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Size returns the number of stops the matrix covers.
func (m *TravelMatrix) Size() int {
	if m == nil {
		return 0
	}
	return m.n
}

// Edge returns the travel edge from one stop index to another.
func (m *TravelMatrix) Edge(from, to int) TravelEdge {
	return m.edges[from*m.n+to]
}

// Rows returns a copy of the matrix as nested rows.
func (m *TravelMatrix) Rows() [][]TravelEdge {
	out := make([][]TravelEdge, m.n)
	for i := range out {
		out[i] = append([]TravelEdge(nil), m.edges[i*m.n:(i+1)*m.n]...)
	}
	return out
}
