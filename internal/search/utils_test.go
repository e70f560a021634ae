package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRmseAt(t *testing.T) {
	var predicted = []float64{1, 2, 3, 100}
	var expected = []float64{1, 4, 3, -100}
	assert.Equal(t, math.Sqrt(2.0), rmseAt(predicted, expected, []int{0, 1}))
	assert.Equal(t, 0.0, rmseAt(predicted, expected, []int{0, 2}))
}

// The reported energy error must equal rmse(pred/nAtoms, exp/nAtoms)*1000
// exactly, including the floating-point order of operations.
func TestRmsePerAtom_MatchesExplicitDivision(t *testing.T) {
	var predicted = []float64{-3.31, -2.72, -4.09}
	var expected = []float64{-3.35, -2.60, -4.11}
	var ids = []int{0, 1, 2}
	const nAtoms = 4

	var perAtomP = make([]float64, len(predicted))
	var perAtomE = make([]float64, len(expected))
	for i := range predicted {
		perAtomP[i] = predicted[i] / nAtoms
		perAtomE[i] = expected[i] / nAtoms
	}
	var want = rmseAt(perAtomP, perAtomE, ids) * 1e3

	assert.Equal(t, want, rmsePerAtom(predicted, expected, ids, nAtoms)*1e3)
}

func TestRoundTo4(t *testing.T) {
	assert.Equal(t, 1.2346, roundTo4(1.23456))
	assert.Equal(t, []float64{0.1, 2.0}, roundedAll([]float64{0.10004, 1.99999}))
}
