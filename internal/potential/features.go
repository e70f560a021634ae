package potential

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/potml/potgrid/internal/dataset"
)

// structureDescriptors holds the base descriptor vector of one structure
// and, when forces are in use, its gradient with respect to every atomic
// coordinate (natoms*3 rows).
type structureDescriptors struct {
	base []float64
	grad [][]float64
}

type featurizer struct {
	params *ModelParams
}

func (f *featurizer) describe(st *dataset.Structure, withGrad bool) structureDescriptors {
	var p = f.params
	var nBase = p.nBaseDescriptors()
	var d = structureDescriptors{base: make([]float64, nBase)}
	if withGrad {
		d.grad = make([][]float64, st.NAtoms()*3)
		for i := range d.grad {
			d.grad[i] = make([]float64, nBase)
		}
	}

	var wrap = newWrapper(st.Lattice)
	f.pairTerms(st, wrap, &d)
	if len(p.angularL) > 0 {
		f.angularTerms(st, wrap, &d)
	}
	return d
}

// pairTerms accumulates the gaussian pair descriptors: one channel per
// (composite width, center) pair, duplicated with a spin-product factor
// when the spin channel is enabled.
func (f *featurizer) pairTerms(st *dataset.Structure, wrap *wrapper, d *structureDescriptors) {
	var p = f.params
	var rc = p.CutoffRadius
	var nPair = p.CompositeNum * p.GaussianParams2Num
	var n = st.NAtoms()

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var rv = wrap.delta(st.Positions[i], st.Positions[j])
			var r = norm3(rv)
			if r >= rc || r < 1e-12 {
				continue
			}
			var fc, dfc = cutoffFn(r, rc)
			var spin = st.Spin(i) * st.Spin(j)
			var u [3]float64
			for a := 0; a < 3; a++ {
				u[a] = rv[a] / r
			}

			var idx = 0
			for c := 0; c < p.CompositeNum; c++ {
				var eta = p.gaussianEtas[c]
				for _, center := range p.gaussianCenters {
					var dr = r - center
					var e = math.Exp(-eta * dr * dr)
					var phi = e * fc
					d.base[idx] += phi
					if p.UseSpin {
						d.base[nPair+idx] += spin * phi
					}
					if d.grad != nil {
						var dphi = e * (dfc - 2*eta*dr*fc)
						for a := 0; a < 3; a++ {
							var g = dphi * u[a]
							d.grad[i*3+a][idx] += g
							d.grad[j*3+a][idx] -= g
							if p.UseSpin {
								d.grad[i*3+a][nPair+idx] += spin * g
								d.grad[j*3+a][nPair+idx] -= spin * g
							}
						}
					}
					idx++
				}
			}
		}
	}
}

// angularTerms accumulates cos^l three-body descriptors over triplets
// centered on each atom, with cutoff damping on both legs.
func (f *featurizer) angularTerms(st *dataset.Structure, wrap *wrapper, d *structureDescriptors) {
	var p = f.params
	var rc = p.CutoffRadius
	var n = st.NAtoms()
	var angOffset = p.nBaseDescriptors() - len(p.angularL)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			var av = wrap.delta(st.Positions[j], st.Positions[i])
			var ra = norm3(av)
			if ra >= rc || ra < 1e-12 {
				continue
			}
			for k := j + 1; k < n; k++ {
				if k == i {
					continue
				}
				var bv = wrap.delta(st.Positions[k], st.Positions[i])
				var rb = norm3(bv)
				if rb >= rc || rb < 1e-12 {
					continue
				}
				f.tripletTerms(i, j, k, av, bv, ra, rb, angOffset, d)
			}
		}
	}
}

func (f *featurizer) tripletTerms(i, j, k int, av, bv [3]float64, ra, rb float64, angOffset int, d *structureDescriptors) {
	var p = f.params
	var rc = p.CutoffRadius

	var dot = av[0]*bv[0] + av[1]*bv[1] + av[2]*bv[2]
	var cosT = dot / (ra * rb)
	var fca, dfca = cutoffFn(ra, rc)
	var fcb, dfcb = cutoffFn(rb, rc)

	// d(cosT)/d(av) and d(cosT)/d(bv)
	var dcosA, dcosB [3]float64
	for a := 0; a < 3; a++ {
		dcosA[a] = bv[a]/(ra*rb) - cosT*av[a]/(ra*ra)
		dcosB[a] = av[a]/(ra*rb) - cosT*bv[a]/(rb*rb)
	}

	for li, l := range p.angularL {
		var ul = math.Pow(cosT, float64(l))
		d.base[angOffset+li] += ul * fca * fcb

		if d.grad == nil {
			continue
		}
		var ulPrime = float64(l) * math.Pow(cosT, float64(l-1))
		for a := 0; a < 3; a++ {
			// av = r_j - r_i, bv = r_k - r_i
			var dA = ulPrime*dcosA[a]*fca*fcb + ul*dfca*(av[a]/ra)*fcb
			var dB = ulPrime*dcosB[a]*fca*fcb + ul*fca*dfcb*(bv[a]/rb)
			d.grad[j*3+a][angOffset+li] += dA
			d.grad[k*3+a][angOffset+li] += dB
			d.grad[i*3+a][angOffset+li] -= dA + dB
		}
	}
}

// energyRow expands base descriptors into the feature row of one structure:
// optional delta-learning bias, then the descriptor powers.
func (f *featurizer) energyRow(dst []float64, d *structureDescriptors, nAtoms int) {
	var p = f.params
	var col = 0
	if p.DeltaLearning {
		dst[col] = float64(nAtoms)
		col++
	}
	for power := 1; power <= p.polyOrders(); power++ {
		for _, b := range d.base {
			dst[col] = math.Pow(b, float64(power))
			col++
		}
	}
}

// forceRow fills the feature row of one atomic coordinate: the negated
// descriptor gradient, chain-ruled through the polynomial powers.
func (f *featurizer) forceRow(dst []float64, d *structureDescriptors, coord int) {
	var p = f.params
	var col = 0
	if p.DeltaLearning {
		dst[col] = 0
		col++
	}
	var g = d.grad[coord]
	for power := 1; power <= p.polyOrders(); power++ {
		var fp = float64(power)
		for bi, b := range d.base {
			dst[col] = -fp * math.Pow(b, fp-1) * g[bi]
			col++
		}
	}
}

// buildMatrix assembles the full feature matrix of a structure pool:
// energy rows first, then force rows structure-major when forces are used.
func (f *featurizer) buildMatrix(structures []dataset.Structure) *mat.Dense {
	var p = f.params
	var n = len(structures)
	var rows = n
	var forceIDUnit = 0
	if p.UseForce {
		forceIDUnit = structures[0].NAtoms() * 3
		rows += n * forceIDUnit
	}

	var x = mat.NewDense(rows, p.NFeatures(), nil)
	var row = make([]float64, p.NFeatures())
	for s := range structures {
		var d = f.describe(&structures[s], p.UseForce)
		f.energyRow(row, &d, structures[s].NAtoms())
		x.SetRow(s, row)
		if p.UseForce {
			for coord := 0; coord < forceIDUnit; coord++ {
				f.forceRow(row, &d, coord)
				x.SetRow(n+s*forceIDUnit+coord, row)
			}
		}
	}
	return x
}

func cutoffFn(r, rc float64) (fc, dfc float64) {
	var arg = math.Pi * r / rc
	fc = 0.5 * (math.Cos(arg) + 1)
	dfc = -0.5 * math.Pi / rc * math.Sin(arg)
	return fc, dfc
}

func norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
