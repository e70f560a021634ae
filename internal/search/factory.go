package search

import (
	"github.com/potml/potgrid/internal/config"
	"github.com/potml/potgrid/internal/grid"
	"github.com/potml/potgrid/internal/potential"
)

// ArrangeModel merges one grid point with the fixed run configuration,
// computes the derived model parameters and constructs a fresh model.
// Successive calls share no state.
func ArrangeModel(point grid.Point, cfg *config.Config) (*potential.Model, error) {
	var params = potential.ModelParams{
		CutoffRadius:       point.CutoffRadius,
		GaussianParams2Num: point.GaussianParams2Num,
		Alpha:              point.Alpha,

		CompositeNum:        cfg.CompositeNum,
		FeatureType:         cfg.FeatureType,
		GtinvLmax:           cfg.GtinvLmax,
		UseGtinvSym:         cfg.UseGtinvSym,
		UseForce:            cfg.UseForce,
		UseSpin:             cfg.UseSpin,
		GaussianParams2Flag: cfg.GaussianParams2Flag,
		PolynomialModel:     cfg.PolynomialModel,
		PolynomialMaxOrder:  cfg.PolynomialMaxOrder,
		IsParamagnetic:      cfg.IsParamagnetic,
		DeltaLearning:       cfg.DeltaLearning,
	}
	if err := params.SetAPIParams(); err != nil {
		return nil, err
	}
	return potential.New(params)
}
