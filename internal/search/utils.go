package search

import "math"

func rmseAt(predicted, expected []float64, ids []int) float64 {
	var sum float64
	for _, id := range ids {
		var d = predicted[id] - expected[id]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(ids)))
}

// rmsePerAtom divides both sides by nAtoms before differencing, matching
// the reported per-atom convention bit for bit.
func rmsePerAtom(predicted, expected []float64, ids []int, nAtoms int) float64 {
	var na = float64(nAtoms)
	var sum float64
	for _, id := range ids {
		var d = predicted[id]/na - expected[id]/na
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(ids)))
}

func roundTo4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

func roundedAll(xs []float64) []float64 {
	var result = make([]float64, len(xs))
	for i, x := range xs {
		result[i] = roundTo4(x)
	}
	return result
}
