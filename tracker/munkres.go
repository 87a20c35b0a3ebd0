package tracker

import (
	"errors"
	"fmt"
	"math"
)

// The solver implements the Kuhn-Munkres (Hungarian) algorithm for optimal
// track-to-detection assignment.  It solves the rectangular minimum-cost
// bipartite matching problem in O(n³) time, replacing greedy per-row
// nearest-cost selection which produces identity switches and duplicate
// tracks when several tracks compete for overlapping detections.
//
// The rectangular matrix is padded to square with a cost above any real
// cost, then solved with row/column dual potentials and a shortest
// augmenting path search (Jonker-Volgenant variant).  Sentinel entries and
// assignments landing in the padded region are read out as unmatched.

// slackEps snaps near-zero slack to zero when searching the equality
// subgraph, avoiding floating-point near-miss failures to follow an
// augmenting path.
const slackEps = 1e-4

// ErrDimensionMismatch reports a cost matrix whose shape does not agree
// with the track and detection counts of the cycle being solved.
var ErrDimensionMismatch = errors.New("cost matrix dimensions do not match track/detection counts")

// Assignment is the result of one association cycle: two parallel
// mappings between track indices and detection indices, -1 marking an
// unmatched row or column.  Assignments are produced fresh each cycle and
// never persisted.
type Assignment struct {
	// TrackToDet maps track index to matched detection index
	TrackToDet []int
	// DetToTrack maps detection index to matched track index
	DetToTrack []int
}

func unmatchedAssignment(nTracks, nDets int) Assignment {
	a := Assignment{
		TrackToDet: make([]int, nTracks),
		DetToTrack: make([]int, nDets),
	}
	for i := range a.TrackToDet {
		a.TrackToDet[i] = -1
	}
	for j := range a.DetToTrack {
		a.DetToTrack[j] = -1
	}
	return a
}

// Solve computes the minimum-total-cost matching for the given gated cost
// matrix.  nTracks and nDets are the expected row and column counts for
// the cycle; a mismatch is a contract violation and the solver refuses to
// run rather than produce a partial result.  Sentinel (infinite) entries
// are never part of the returned matching.
func Solve(costs *CostMatrix, nTracks, nDets int) (Assignment, error) {

	if nTracks < 0 || nDets < 0 {
		return Assignment{}, fmt.Errorf("%w: %d tracks, %d detections",
			ErrDimensionMismatch, nTracks, nDets)
	}

	if costs == nil {
		if nTracks > 0 && nDets > 0 {
			return Assignment{}, fmt.Errorf("%w: nil matrix for %dx%d cycle",
				ErrDimensionMismatch, nTracks, nDets)
		}
		return unmatchedAssignment(nTracks, nDets), nil
	}

	rows, cols := costs.Dims()
	if rows != nTracks || cols != nDets {
		return Assignment{}, fmt.Errorf("%w: matrix is %dx%d, cycle has %d tracks and %d detections",
			ErrDimensionMismatch, rows, cols, nTracks, nDets)
	}

	// pad to square with a cost above the sum of every real cost.  Any
	// matching including a padded or forbidden cell then costs more than
	// any matching with one more real pair, so the solver maximizes the
	// number of real pairs before minimizing their total.  Keeping the
	// stand-in just above the finite sum, rather than a huge constant,
	// preserves float precision in the dual arithmetic.
	dim := rows
	if cols > dim {
		dim = cols
	}

	forbidden := 1.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := costs.At(i, j); !IsSentinel(v) {
				forbidden += v
			}
		}
	}

	padded := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		padded[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			if i < rows && j < cols {
				if v := costs.At(i, j); !IsSentinel(v) {
					padded[i][j] = v
					continue
				}
			}
			padded[i][j] = forbidden
		}
	}

	rowForCol := solveSquare(dim, padded)

	// trim to original dimensions and reject forbidden pairs
	result := unmatchedAssignment(nTracks, nDets)

	for j := 1; j <= dim; j++ {
		i := rowForCol[j]
		if i <= 0 {
			continue
		}

		row, col := i-1, j-1
		if row >= rows || col >= cols {
			continue
		}
		if IsSentinel(costs.At(row, col)) {
			continue
		}

		result.TrackToDet[row] = col
		result.DetToTrack[col] = row
	}

	return result, nil
}

// solveSquare runs the Kuhn-Munkres algorithm with dual potentials on a
// dim x dim matrix.  It returns rowForCol where rowForCol[j] is the
// 1-indexed row assigned to 1-indexed column j.  Index 0 is the virtual
// column used to start each augmenting path.
func solveSquare(dim int, cost [][]float64) []int {

	const inf = math.MaxFloat64 / 2

	u := make([]float64, dim+1)         // row potentials
	v := make([]float64, dim+1)         // column potentials
	rowForCol := make([]int, dim+1)     // matched row per column
	way := make([]int, dim+1)           // previous column on the path
	minSlack := make([]float64, dim+1)  // minimum reduced cost per column
	visited := make([]bool, dim+1)      // columns on the current path

	for i := 1; i <= dim; i++ {
		rowForCol[0] = i
		j0 := 0 // virtual column

		for j := 1; j <= dim; j++ {
			minSlack[j] = inf
			visited[j] = false
		}

		for {
			visited[j0] = true
			i0 := rowForCol[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if visited[j] {
					continue
				}
				slack := cost[i0-1][j-1] - u[i0] - v[j]
				if slack < minSlack[j] {
					minSlack[j] = slack
					way[j] = j0
				}
				if minSlack[j] < delta {
					delta = minSlack[j]
					j1 = j
				}
			}

			if j1 < 0 {
				break
			}

			if delta < slackEps {
				delta = 0
			}

			for j := 0; j <= dim; j++ {
				if visited[j] {
					u[rowForCol[j]] += delta
					v[j] -= delta
				} else {
					minSlack[j] -= delta
				}
			}

			j0 = j1
			if rowForCol[j0] == 0 {
				break
			}
		}

		// augment along the recorded path
		for j0 != 0 {
			rowForCol[j0] = rowForCol[way[j0]]
			j0 = way[j0]
		}
	}

	return rowForCol
}
