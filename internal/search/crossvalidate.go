package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/potml/potgrid/internal/config"
	"github.com/potml/potgrid/internal/dataset"
	"github.com/potml/potgrid/internal/grid"
	"github.com/potml/potgrid/internal/potential"
)

// kfoldSeed fixes the shuffled fold assignment across runs and candidates.
const kfoldSeed = 0

var (
	ErrNoRetainedModel = errors.New("search: no candidate was retained")
	ErrForceMetric     = errors.New("search: force metric needs force data")
)

// FoldScore holds one fold's validation errors. Energy is per atom in
// meV; Force is zero when forces are not in use.
type FoldScore struct {
	Combined float64
	Energy   float64
	Force    float64
}

// CandidateReport is the aggregated record of one grid point, sufficient
// to replay the selection decision.
type CandidateReport struct {
	Index  int
	Params grid.Point
	Folds  []FoldScore

	MeanCombined float64
	StdCombined  float64
	MeanEnergy   float64
	StdEnergy    float64
	MeanForce    float64
	StdForce     float64

	Retained bool
}

// Report is the structured result log of a whole search.
type Report struct {
	Candidates []CandidateReport
	BestIndex  int
}

// CrossValidator evaluates every grid point under shuffled k-fold
// cross-validation and retains the best one by the configured metric.
type CrossValidator struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metric  Metric
	Threads int
}

type foldSplit struct {
	train dataset.Yids
	valid dataset.Yids
}

// Run executes the search. The dataset is read-only for its whole
// duration; per-candidate state never crosses candidates. A failed
// candidate fails the search: skipping it would corrupt the best-so-far
// comparison.
func (cv *CrossValidator) Run(
	ctx context.Context,
	g *grid.Grid,
	kfold *dataset.Dataset,
	highEnergyIndex [][]int,
) (*potential.Model, grid.Point, *Report, error) {

	if cv.Config.NSplits < 2 {
		return nil, grid.Point{}, nil, config.ErrTooFewSplits
	}
	if cv.Metric == MetricForce && !cv.Config.UseForce {
		return nil, grid.Point{}, nil, ErrForceMetric
	}
	var points = g.Points()
	if len(points) == 0 {
		return nil, grid.Point{}, nil, grid.ErrEmptyGrid
	}
	forceIDUnit, err := kfold.ForceIDUnit()
	if err != nil {
		return nil, grid.Point{}, nil, err
	}

	var folds = cv.makeFolds(kfold.NStructures(), forceIDUnit)
	var reports = make([]CandidateReport, len(points))

	var best *retained
	if cv.Threads > 1 {
		best, err = cv.runParallel(ctx, points, kfold, folds, highEnergyIndex, reports)
	} else {
		best, err = cv.runSequential(ctx, points, kfold, folds, highEnergyIndex, reports)
	}
	if err != nil {
		return nil, grid.Point{}, nil, err
	}
	if best.model == nil {
		return nil, grid.Point{}, nil, ErrNoRetainedModel
	}

	reports[best.index].Retained = true
	cv.Logger.Info().
		Str("params", best.params.String()).
		Float64("rmse", best.score).
		Msg("best model")

	return best.model, best.params, &Report{Candidates: reports, BestIndex: best.index}, nil
}

func (cv *CrossValidator) makeFolds(nStructure, forceIDUnit int) []foldSplit {
	var validFolds = dataset.KFoldSplit(nStructure, cv.Config.NSplits, kfoldSeed)
	var folds = make([]foldSplit, 0, len(validFolds))
	for _, valid := range validFolds {
		var train = dataset.Complement(valid, nStructure)
		folds = append(folds, foldSplit{
			train: dataset.YidsForStructureIDs(train, nStructure, forceIDUnit, cv.Config.UseForce),
			valid: dataset.YidsForStructureIDs(valid, nStructure, forceIDUnit, cv.Config.UseForce),
		})
	}
	return folds
}

func (cv *CrossValidator) runSequential(
	ctx context.Context,
	points []grid.Point,
	kfold *dataset.Dataset,
	folds []foldSplit,
	highEnergyIndex [][]int,
	reports []CandidateReport,
) (*retained, error) {
	var best = newRetained()
	for i, point := range points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep, model, err := cv.evaluateCandidate(i, point, kfold, folds, highEnergyIndex)
		if err != nil {
			return nil, err
		}
		best.consider(i, cv.Metric.score(&rep), point, model)
		// The candidate is out of contention now: either discarded, or
		// snapshotted without its matrix.
		model.ReleaseFeatures()
		reports[i] = rep

		cv.Logger.Debug().
			Str("params", best.params.String()).
			Float64("rmse", roundTo4(best.score)).
			Msg("retained model")
	}
	return best, nil
}

// runParallel distributes candidates over a worker pool. Candidates are
// independent once dataset-level weighting has run; the dataset is shared
// read-only and each worker keeps its own best-so-far, reduced at the end
// under the same strict-improvement rule.
func (cv *CrossValidator) runParallel(
	ctx context.Context,
	points []grid.Point,
	kfold *dataset.Dataset,
	folds []foldSplit,
	highEnergyIndex [][]int,
	reports []CandidateReport,
) (*retained, error) {
	var locals = make([]*retained, cv.Threads)
	var next int32 = -1

	g, ctx := errgroup.WithContext(ctx)
	for t := 0; t < cv.Threads; t++ {
		var local = newRetained()
		locals[t] = local
		g.Go(func() error {
			for {
				var i = int(atomic.AddInt32(&next, 1))
				if i >= len(points) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				rep, model, err := cv.evaluateCandidate(i, points[i], kfold, folds, highEnergyIndex)
				if err != nil {
					return err
				}
				local.consider(i, cv.Metric.score(&rep), points[i], model)
				model.ReleaseFeatures()
				reports[i] = rep
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var best = newRetained()
	for _, local := range locals {
		best.merge(local)
	}
	return best, nil
}

// evaluateCandidate runs one grid point through the full fold cycle:
// features are built once, weighted once, then trained and scored per fold.
// Training state does not persist across folds; each Train overwrites it.
func (cv *CrossValidator) evaluateCandidate(
	index int,
	point grid.Point,
	kfold *dataset.Dataset,
	folds []foldSplit,
	highEnergyIndex [][]int,
) (CandidateReport, *potential.Model, error) {
	var cfg = cv.Config
	var nStructure = kfold.NStructures()
	var nAtoms = kfold.NAtomsInStructure()

	model, err := ArrangeModel(point, cfg)
	if err != nil {
		return CandidateReport{}, nil, err
	}
	model.BuildFeatures(kfold.Structures, true)
	if err := model.ApplyWeights(cfg.EnergyWeight, cfg.ForceWeight,
		cfg.HighEnergyWeights, highEnergyIndex, nStructure); err != nil {
		return CandidateReport{}, nil, err
	}

	var rows, cols = model.FeatureShape()
	cv.Logger.Debug().
		Int("candidate", index).
		Str("params", point.String()).
		Int("rows", rows).
		Int("cols", cols).
		Float64("memoryGB", roundTo4(float64(rows*cols*8)/1e9)).
		Msg("test model")

	var combined, energy, force []float64
	for _, fold := range folds {
		if err := model.Train(fold.train.Target, kfold.Target); err != nil {
			return CandidateReport{}, nil, fmt.Errorf("candidate %v: %w", point, err)
		}
		predicted, err := model.Predict(nil)
		if err != nil {
			return CandidateReport{}, nil, err
		}
		combined = append(combined, rmseAt(predicted, kfold.Target, fold.valid.Target))
		energy = append(energy, rmsePerAtom(predicted, kfold.Target, fold.valid.Energy, nAtoms)*1e3)
		if cfg.UseForce {
			force = append(force, rmseAt(predicted, kfold.Target, fold.valid.Force))
		}
	}

	var rep = CandidateReport{
		Index:        index,
		Params:       point,
		MeanCombined: stat.Mean(combined, nil),
		StdCombined:  stat.StdDev(combined, nil),
		MeanEnergy:   stat.Mean(energy, nil),
		StdEnergy:    stat.StdDev(energy, nil),
	}
	for f := range combined {
		var fs = FoldScore{Combined: combined[f], Energy: energy[f]}
		if cfg.UseForce {
			fs.Force = force[f]
		}
		rep.Folds = append(rep.Folds, fs)
	}
	if cfg.UseForce {
		rep.MeanForce = stat.Mean(force, nil)
		rep.StdForce = stat.StdDev(force, nil)
	}

	cv.Logger.Debug().
		Int("candidate", index).
		Floats64("rmseTarget", roundedAll(combined)).
		Float64("rmseTargetMean", rep.MeanCombined).
		Float64("rmseTargetStdDev", rep.StdCombined).
		Floats64("rmseEnergyMeVAtom", roundedAll(energy)).
		Float64("rmseEnergyMean", rep.MeanEnergy).
		Msg("fold scores")

	return rep, model, nil
}
