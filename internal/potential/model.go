package potential

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/potml/potgrid/internal/dataset"
)

var (
	ErrNoFeatures   = errors.New("potential: feature matrix not built or released")
	ErrNotTrained   = errors.New("potential: model has no fitted coefficients")
	ErrSolveFailed  = errors.New("potential: linear solve failed")
	ErrParamsNotSet = errors.New("potential: SetAPIParams was not called")
)

// Model is a linear regression potential over gaussian pair (and optionally
// angular) descriptors. It owns its feature matrix exclusively; the matrix
// can be released to bound memory once the model is out of contention.
type Model struct {
	Params ModelParams

	x          *mat.Dense
	scaler     *Scaler
	coeffs     []float64
	nStructure int
}

func New(params ModelParams) (*Model, error) {
	if !params.ready {
		return nil, ErrParamsNotSet
	}
	return &Model{Params: params}, nil
}

// BuildFeatures constructs the feature matrix for structures, fitting a
// fresh scaler when fitScaler is set and reusing the stored one otherwise.
func (m *Model) BuildFeatures(structures []dataset.Structure, fitScaler bool) {
	var f = featurizer{params: &m.Params}
	var x = f.buildMatrix(structures)
	m.nStructure = len(structures)
	if fitScaler {
		var skipCol = -1
		if m.Params.DeltaLearning {
			skipCol = 0
		}
		m.scaler = newScaler(skipCol)
		m.scaler.Fit(x, m.nStructure)
	}
	if m.scaler != nil {
		m.scaler.Transform(x, m.nStructure)
	}
	m.x = x
}

// ApplyWeights rescales the sample rows of the feature matrix: the energy
// block by energyWeight, the force block by forceWeight, then each
// high-energy group's rows by its override scalar. The override pass is
// skipped for a single group with scalar 1, which is a no-op.
func (m *Model) ApplyWeights(
	energyWeight float64,
	forceWeight float64,
	highEnergyWeights []float64,
	highEnergyIndex [][]int,
	nStructure int,
) error {
	if m.x == nil {
		return ErrNoFeatures
	}
	var rows, _ = m.x.Dims()
	if energyWeight != 1.0 {
		for r := 0; r < nStructure; r++ {
			scaleRow(m.x, r, energyWeight)
		}
	}
	if forceWeight != 1.0 {
		for r := nStructure; r < rows; r++ {
			scaleRow(m.x, r, forceWeight)
		}
	}
	if len(highEnergyWeights) == 1 && highEnergyWeights[0] == 1.0 {
		return nil
	}
	for i, w := range highEnergyWeights {
		if i >= len(highEnergyIndex) {
			break
		}
		for _, r := range highEnergyIndex[i] {
			scaleRow(m.x, r, w)
		}
	}
	return nil
}

func scaleRow(x *mat.Dense, row int, w float64) {
	var raw = x.RawRowView(row)
	floats.Scale(w, raw)
}

// Train fits ridge coefficients on the given feature rows against the
// matching entries of target, via the regularized normal equations. A
// failed or non-finite solve is reported, never masked.
func (m *Model) Train(rowIDs []int, target []float64) error {
	if m.x == nil {
		return ErrNoFeatures
	}
	var nf = m.Params.NFeatures()
	var xr = mat.NewDense(len(rowIDs), nf, nil)
	var y = mat.NewVecDense(len(rowIDs), nil)
	for i, row := range rowIDs {
		xr.SetRow(i, m.x.RawRowView(row))
		y.SetVec(i, target[row])
	}

	var gram mat.Dense
	gram.Mul(xr.T(), xr)
	for i := 0; i < nf; i++ {
		gram.Set(i, i, gram.At(i, i)+m.Params.Alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(xr.T(), y)

	var sym = mat.NewSymDense(nf, nil)
	for i := 0; i < nf; i++ {
		for j := i; j < nf; j++ {
			sym.SetSym(i, j, gram.At(i, j))
		}
	}

	var w = mat.NewVecDense(nf, nil)
	var chol mat.Cholesky
	if chol.Factorize(sym) {
		if err := chol.SolveVecTo(w, &rhs); err != nil {
			return fmt.Errorf("%w: %v", ErrSolveFailed, err)
		}
	} else if err := w.SolveVec(&gram, &rhs); err != nil {
		return fmt.Errorf("%w: %v", ErrSolveFailed, err)
	}

	var coeffs = make([]float64, nf)
	copy(coeffs, w.RawVector().Data)
	if floats.HasNaN(coeffs) {
		return fmt.Errorf("%w: non-finite coefficients", ErrSolveFailed)
	}
	m.coeffs = coeffs
	return nil
}

// Predict evaluates the fitted model. With nil structures it predicts over
// the stored feature matrix; otherwise it featurizes the given structures
// with the stored scaler, leaving the stored matrix untouched.
func (m *Model) Predict(structures []dataset.Structure) ([]float64, error) {
	if m.coeffs == nil {
		return nil, ErrNotTrained
	}
	var x = m.x
	if structures != nil {
		var f = featurizer{params: &m.Params}
		x = f.buildMatrix(structures)
		if m.scaler != nil {
			m.scaler.Transform(x, len(structures))
		}
	} else if x == nil {
		return nil, ErrNoFeatures
	}

	var rows, _ = x.Dims()
	var out = mat.NewVecDense(rows, nil)
	var w = mat.NewVecDense(len(m.coeffs), m.coeffs)
	out.MulVec(x, w)

	var result = make([]float64, rows)
	copy(result, out.RawVector().Data)
	return result, nil
}

// Clone produces a fully independent deep copy sharing no backing storage.
func (m *Model) Clone() *Model {
	var c = &Model{
		Params:     m.Params,
		scaler:     m.scaler.clone(),
		nStructure: m.nStructure,
	}
	c.Params.gaussianCenters = append([]float64(nil), m.Params.gaussianCenters...)
	c.Params.gaussianEtas = append([]float64(nil), m.Params.gaussianEtas...)
	c.Params.angularL = append([]int(nil), m.Params.angularL...)
	if m.coeffs != nil {
		c.coeffs = append([]float64(nil), m.coeffs...)
	}
	if m.x != nil {
		c.x = mat.DenseCopyOf(m.x)
	}
	return c
}

// ReleaseFeatures drops the feature matrix so it can be reclaimed. The
// model stays usable for Predict over fresh structures and can rebuild
// its matrix with BuildFeatures.
func (m *Model) ReleaseFeatures() {
	m.x = nil
}

func (m *Model) HasFeatures() bool {
	return m.x != nil
}

// FeatureShape returns the dimensions of the stored matrix, or zeros after
// release.
func (m *Model) FeatureShape() (rows, cols int) {
	if m.x == nil {
		return 0, 0
	}
	return m.x.Dims()
}

// Coeffs exposes a copy of the fitted coefficients.
func (m *Model) Coeffs() []float64 {
	return append([]float64(nil), m.coeffs...)
}

// Scaler exposes the fitted scaler, nil before the first BuildFeatures
// with fitScaler set.
func (m *Model) Scaler() *Scaler {
	return m.scaler
}

// Restore rehydrates a persisted model from its fitted state.
func (m *Model) Restore(coeffs []float64, scaler *Scaler) {
	m.coeffs = append([]float64(nil), coeffs...)
	m.scaler = scaler
}
