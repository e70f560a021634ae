package potential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potml/potgrid/internal/dataset"
)

func testStructure() dataset.Structure {
	return dataset.Structure{
		Name: "trimer",
		Positions: [][3]float64{
			{0.0, 0.0, 0.0},
			{1.7, 0.3, -0.2},
			{0.4, 1.9, 0.6},
		},
		Species: []int{1, 1, 1},
		Spins:   []float64{1, -1, 1},
		Energy:  -3.0,
	}
}

func descriptorsAt(p *ModelParams, st dataset.Structure, withGrad bool) structureDescriptors {
	var f = featurizer{params: p}
	return f.describe(&st, withGrad)
}

// The analytic descriptor gradient must match a central finite difference
// for every atom, axis and descriptor channel.
func TestDescribe_GradientMatchesFiniteDifference(t *testing.T) {
	var p = pairParams()
	p.UseForce = true
	p.UseSpin = true
	p.FeatureType = "gtinv"
	p.GtinvLmax = 3
	require.NoError(t, p.SetAPIParams())

	var st = testStructure()
	var d = descriptorsAt(&p, st, true)
	var nBase = p.nBaseDescriptors()

	const h = 1e-6
	for atom := 0; atom < st.NAtoms(); atom++ {
		for axis := 0; axis < 3; axis++ {
			var plus = testStructure()
			plus.Positions[atom][axis] += h
			var minus = testStructure()
			minus.Positions[atom][axis] -= h

			var dPlus = descriptorsAt(&p, plus, false)
			var dMinus = descriptorsAt(&p, minus, false)
			for b := 0; b < nBase; b++ {
				var numeric = (dPlus.base[b] - dMinus.base[b]) / (2 * h)
				assert.InDelta(t, numeric, d.grad[atom*3+axis][b], 1e-5,
					"atom %d axis %d descriptor %d", atom, axis, b)
			}
		}
	}
}

func TestDescribe_PairGradientAntisymmetry(t *testing.T) {
	var p = pairParams()
	p.UseForce = true
	require.NoError(t, p.SetAPIParams())

	var st = dataset.Structure{
		Positions: [][3]float64{{0, 0, 0}, {1.3, 0.4, 0.8}},
		Species:   []int{1, 1},
	}
	var d = descriptorsAt(&p, st, true)
	for b := 0; b < p.nBaseDescriptors(); b++ {
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, -d.grad[0*3+axis][b], d.grad[1*3+axis][b], 1e-14)
		}
	}
}

func TestBuildMatrix_Shape(t *testing.T) {
	var p = pairParams()
	p.UseForce = true
	require.NoError(t, p.SetAPIParams())

	var f = featurizer{params: &p}
	var structures = []dataset.Structure{testStructure(), testStructure()}
	var x = f.buildMatrix(structures)
	var rows, cols = x.Dims()
	assert.Equal(t, 2+2*9, rows, "2 energy rows plus 9 force rows per structure")
	assert.Equal(t, p.NFeatures(), cols)
}

func TestCutoffFn(t *testing.T) {
	fc, _ := cutoffFn(0, 4.0)
	assert.InDelta(t, 1.0, fc, 1e-15)
	fc, dfc := cutoffFn(4.0, 4.0)
	assert.InDelta(t, 0.0, fc, 1e-15)
	assert.InDelta(t, 0.0, dfc, 1e-12)
}

func TestWrapper_MinimumImage(t *testing.T) {
	var w = newWrapper([3][3]float64{{10, 0, 0}, {0, 10, 0}, {0, 0, 10}})
	var d = w.delta([3]float64{9.5, 0, 0}, [3]float64{0.5, 0, 0})
	assert.InDelta(t, -1.0, d[0], 1e-12, "image across the boundary is closer")

	var free = newWrapper([3][3]float64{})
	d = free.delta([3]float64{9.5, 0, 0}, [3]float64{0.5, 0, 0})
	assert.Equal(t, 9.0, d[0])
}
