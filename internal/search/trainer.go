package search

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/potml/potgrid/internal/config"
	"github.com/potml/potgrid/internal/dataset"
	"github.com/potml/potgrid/internal/grid"
	"github.com/potml/potgrid/internal/potential"
	"github.com/potml/potgrid/internal/report"
)

// EvalScores are the final accuracy figures of the retained model against
// one pool.
type EvalScores struct {
	EnergyMeVPerAtom float64
	Force            float64
}

// Result bundles the trained model with the structured search and
// evaluation records.
type Result struct {
	Model        *potential.Model
	Params       grid.Point
	SearchReport *Report
	KfoldScores  EvalScores
	TestScores   EvalScores
}

// TrainAndEval is the top-level driver: it weights the k-fold pool's
// targets, grid-searches the hyperparameters when there is anything to
// search, retrains the winner on the whole pool and scores it against both
// pools. The k-fold target vector is mutated in place by the weighting
// steps and read-only afterwards.
func TrainAndEval(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	kfold *dataset.Dataset,
	test *dataset.Dataset,
) (*Result, error) {

	var nStructure = kfold.NStructures()
	forceIDUnit, err := kfold.ForceIDUnit()
	if err != nil {
		return nil, err
	}

	// Dataset-level weighting, once per search.
	applyDatasetWeights(kfold.Target, nStructure, cfg.EnergyWeight, cfg.ForceWeight)

	// High-energy overrides on top of the global weights.
	var highEnergyIndex [][]int
	if cfg.HighEnergyConfigured() {
		for i, path := range cfg.HighEnergyStructureFiles {
			ids, err := dataset.HighEnergyIndex(path, kfold, forceIDUnit, cfg.UseForce)
			if err != nil {
				return nil, fmt.Errorf("high energy group %d: %w", i+1, err)
			}
			highEnergyIndex = append(highEnergyIndex, ids)
			for _, row := range ids {
				kfold.Target[row] *= cfg.HighEnergyWeights[i]
			}
		}
	}

	g, err := grid.Make(grid.Bounds{
		CutoffRadiusMin:       cfg.CutoffRadiusMin,
		CutoffRadiusMax:       cfg.CutoffRadiusMax,
		GaussianParams2NumMin: cfg.GaussianParams2NumMin,
		GaussianParams2NumMax: cfg.GaussianParams2NumMax,
		Alpha:                 cfg.Alpha,
	})
	if err != nil {
		return nil, err
	}

	var result = &Result{}
	if g.SinglePoint() {
		// Fast path: nothing to search.
		result.Params = g.Points()[0]
		result.Model, err = ArrangeModel(result.Params, cfg)
		if err != nil {
			return nil, err
		}
	} else {
		var cv = &CrossValidator{
			Config:  cfg,
			Logger:  logger,
			Metric:  MetricCombined,
			Threads: cfg.NThreads,
		}
		result.Model, result.Params, result.SearchReport, err = cv.Run(ctx, g, kfold, highEnergyIndex)
		if err != nil {
			return nil, err
		}
	}

	// The search never fits on the full pool; retrain before use.
	result.Model.BuildFeatures(kfold.Structures, true)
	if err := result.Model.ApplyWeights(cfg.EnergyWeight, cfg.ForceWeight,
		cfg.HighEnergyWeights, highEnergyIndex, nStructure); err != nil {
		return nil, err
	}
	var trainIDs = make([]int, len(kfold.Target))
	for i := range trainIDs {
		trainIDs[i] = i
	}
	if err := result.Model.Train(trainIDs, kfold.Target); err != nil {
		return nil, err
	}

	var nAtoms = kfold.NAtomsInStructure()

	result.KfoldScores, err = evaluatePool(result.Model, nil, kfold, nAtoms, cfg,
		filepath.Join(cfg.ModelDir, "prediction", "kfold_energy.out"))
	if err != nil {
		return nil, err
	}
	logger.Info().
		Float64("rmseEnergyMeVAtom", result.KfoldScores.EnergyMeVPerAtom).
		Float64("rmseForce", result.KfoldScores.Force).
		Msg("train pool score")

	result.TestScores, err = evaluatePool(result.Model, test.Structures, test, nAtoms, cfg,
		filepath.Join(cfg.ModelDir, "prediction", "test_energy.out"))
	if err != nil {
		return nil, err
	}
	logger.Info().
		Float64("rmseEnergyMeVAtom", result.TestScores.EnergyMeVPerAtom).
		Float64("rmseForce", result.TestScores.Force).
		Msg("test pool score")

	return result, nil
}

// evaluatePool predicts over one pool, records per-structure energies and
// returns the pool's accuracy scores. structures is nil for the pool whose
// features the model already holds.
func evaluatePool(
	model *potential.Model,
	structures []dataset.Structure,
	pool *dataset.Dataset,
	nAtoms int,
	cfg *config.Config,
	outputFilename string,
) (EvalScores, error) {

	predicted, err := model.Predict(structures)
	if err != nil {
		return EvalScores{}, err
	}

	var energyIDEnd = pool.NStructures()
	var na = float64(nAtoms)
	var energyPredict = make([]float64, energyIDEnd)
	var energyExpected = make([]float64, energyIDEnd)
	for i := 0; i < energyIDEnd; i++ {
		energyPredict[i] = predicted[i] / na
		energyExpected[i] = pool.Target[i] / na
	}

	if err := report.RecordEnergyPredictionAccuracy(energyPredict, energyExpected, outputFilename); err != nil {
		return EvalScores{}, err
	}
	if err := report.PlotEnergyPredictionAccuracy(energyPredict, energyExpected,
		outputFilename+".png"); err != nil {
		return EvalScores{}, err
	}

	var scores EvalScores
	scores.EnergyMeVPerAtom = rmseSlice(energyPredict, energyExpected) * 1e3

	if cfg.UseForce {
		var ids = make([]int, 0, len(predicted)-energyIDEnd)
		for i := energyIDEnd; i < len(predicted); i++ {
			ids = append(ids, i)
		}
		scores.Force = rmseAt(predicted, pool.Target, ids)
	}
	return scores, nil
}

// applyDatasetWeights scales the energy and force blocks of a target
// vector in place. A weight of exactly 1 leaves its block untouched.
func applyDatasetWeights(target []float64, nStructure int, energyWeight, forceWeight float64) {
	if energyWeight != 1.0 {
		for i := 0; i < nStructure; i++ {
			target[i] *= energyWeight
		}
	}
	if forceWeight != 1.0 {
		for i := nStructure; i < len(target); i++ {
			target[i] *= forceWeight
		}
	}
}

func rmseSlice(predicted, expected []float64) float64 {
	var ids = make([]int, len(predicted))
	for i := range ids {
		ids[i] = i
	}
	return rmseAt(predicted, expected, ids)
}
