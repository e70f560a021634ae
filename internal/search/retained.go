package search

import (
	"github.com/potml/potgrid/internal/grid"
	"github.com/potml/potgrid/internal/potential"
)

// retained is the best-so-far slot of the search. It is replaced only on
// strict score improvement; on an exact tie the earlier candidate keeps it.
type retained struct {
	index  int
	score  float64
	params grid.Point
	model  *potential.Model
}

func newRetained() *retained {
	return &retained{index: -1, score: 1e10}
}

func (r *retained) better(score float64, index int) bool {
	if r.index < 0 {
		return score < r.score
	}
	if score != r.score {
		return score < r.score
	}
	return index < r.index
}

// consider snapshots the candidate when it beats the slot. The snapshot is
// a deep copy with its feature matrix released: the matrix is redundant
// until final training, which rebuilds it anyway.
func (r *retained) consider(index int, score float64, params grid.Point, model *potential.Model) bool {
	if !r.better(score, index) {
		return false
	}
	r.index = index
	r.score = score
	r.params = params
	r.model = model.Clone()
	r.model.ReleaseFeatures()
	return true
}

// merge folds another slot in under the same comparison rule. Used by the
// parallel reduction.
func (r *retained) merge(other *retained) {
	if other.index < 0 {
		return
	}
	if r.better(other.score, other.index) {
		r.index = other.index
		r.score = other.score
		r.params = other.params
		r.model = other.model
	}
}
