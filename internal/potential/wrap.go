package potential

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// wrapper applies the minimum-image convention for periodic structures.
// A zero lattice disables wrapping.
type wrapper struct {
	lattice  *mat.Dense
	inverse  *mat.Dense
	periodic bool
}

func newWrapper(lattice [3][3]float64) *wrapper {
	var flat = make([]float64, 9)
	var nonZero = false
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			flat[i*3+j] = lattice[i][j]
			if lattice[i][j] != 0 {
				nonZero = true
			}
		}
	}
	if !nonZero {
		return &wrapper{}
	}
	var l = mat.NewDense(3, 3, flat)
	var inv mat.Dense
	if err := inv.Inverse(l); err != nil {
		// Singular cell, treat as non-periodic.
		return &wrapper{}
	}
	return &wrapper{lattice: l, inverse: &inv, periodic: true}
}

// delta returns the minimum-image vector from b to a.
func (w *wrapper) delta(a, b [3]float64) [3]float64 {
	var d = [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
	if !w.periodic {
		return d
	}
	// to fractional, wrap into [-0.5, 0.5), back to cartesian
	var frac [3]float64
	for i := 0; i < 3; i++ {
		frac[i] = w.inverse.At(0, i)*d[0] + w.inverse.At(1, i)*d[1] + w.inverse.At(2, i)*d[2]
		frac[i] -= math.Round(frac[i])
	}
	for i := 0; i < 3; i++ {
		d[i] = frac[0]*w.lattice.At(0, i) + frac[1]*w.lattice.At(1, i) + frac[2]*w.lattice.At(2, i)
	}
	return d
}
