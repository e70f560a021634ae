package potential

import (
	"errors"
	"fmt"
)

var (
	ErrBadParams = errors.New("potential: invalid model parameters")
)

// ModelParams is the merged parameter set of one model: the grid-searched
// dimensions plus the structural settings fixed by the run configuration.
// SetAPIParams must be called before the params are handed to a model.
type ModelParams struct {
	// searched
	CutoffRadius       float64
	GaussianParams2Num int
	Alpha              float64

	// fixed per run
	CompositeNum        int
	FeatureType         string
	GtinvLmax           int
	UseGtinvSym         bool
	UseForce            bool
	UseSpin             bool
	GaussianParams2Flag int
	PolynomialModel     int
	PolynomialMaxOrder  int
	IsParamagnetic      bool
	DeltaLearning       bool

	// derived
	gaussianCenters []float64
	gaussianEtas    []float64
	angularL        []int
	nFeatures       int
	ready           bool
}

// SetAPIParams validates the merged set and computes the derived
// parameters: gaussian center grid, per-composite widths, angular channels
// and the resulting feature count.
func (p *ModelParams) SetAPIParams() error {
	if p.CutoffRadius <= 0 {
		return fmt.Errorf("%w: cutoff_radius %v", ErrBadParams, p.CutoffRadius)
	}
	if p.GaussianParams2Num < 1 {
		return fmt.Errorf("%w: gaussian_params2_num %d", ErrBadParams, p.GaussianParams2Num)
	}
	if p.Alpha < 0 {
		return fmt.Errorf("%w: alpha %v", ErrBadParams, p.Alpha)
	}
	if p.CompositeNum < 1 {
		p.CompositeNum = 1
	}
	if p.FeatureType != "pair" && p.FeatureType != "gtinv" {
		return fmt.Errorf("%w: feature_type %q", ErrBadParams, p.FeatureType)
	}
	if p.FeatureType == "gtinv" && p.GtinvLmax < 1 {
		return fmt.Errorf("%w: gtinv feature needs gtinv_lmax >= 1", ErrBadParams)
	}
	if p.IsParamagnetic && !p.UseSpin {
		return fmt.Errorf("%w: is_paramagnetic needs use_spin", ErrBadParams)
	}

	p.gaussianCenters = linspaceCenters(p.CutoffRadius, p.GaussianParams2Num)

	// Flag 1 keeps a single fixed width; otherwise widths are tied to the
	// center spacing, one channel per composite.
	p.gaussianEtas = make([]float64, p.CompositeNum)
	var baseEta = 0.5
	if p.GaussianParams2Flag != 1 && p.GaussianParams2Num > 1 {
		var spacing = p.gaussianCenters[1] - p.gaussianCenters[0]
		baseEta = 1.0 / (2.0 * spacing * spacing)
	}
	for c := range p.gaussianEtas {
		p.gaussianEtas[c] = baseEta * float64(c+1)
	}

	p.angularL = nil
	if p.FeatureType == "gtinv" {
		var step = 1
		if p.UseGtinvSym {
			step = 2
		}
		for l := step; l <= p.GtinvLmax; l += step {
			p.angularL = append(p.angularL, l)
		}
	}

	var nBase = p.CompositeNum * p.GaussianParams2Num
	if p.UseSpin {
		nBase *= 2
	}
	nBase += len(p.angularL)

	p.nFeatures = nBase * p.polyOrders()
	if p.DeltaLearning {
		p.nFeatures++
	}
	p.ready = true
	return nil
}

func (p *ModelParams) polyOrders() int {
	if p.PolynomialModel >= 2 && p.PolynomialMaxOrder > 1 {
		return p.PolynomialMaxOrder
	}
	return 1
}

func (p *ModelParams) NFeatures() int {
	return p.nFeatures
}

func (p *ModelParams) nBaseDescriptors() int {
	var n = p.CompositeNum * p.GaussianParams2Num
	if p.UseSpin {
		n *= 2
	}
	return n + len(p.angularL)
}

func linspaceCenters(cutoff float64, n int) []float64 {
	if n == 1 {
		return []float64{cutoff / 2}
	}
	var centers = make([]float64, n)
	var step = cutoff / float64(n-1)
	for i := range centers {
		centers[i] = float64(i) * step
	}
	return centers
}
