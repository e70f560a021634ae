package search

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potml/potgrid/internal/config"
	"github.com/potml/potgrid/internal/dataset"
	"github.com/potml/potgrid/internal/grid"
)

func testConfig() *config.Config {
	return &config.Config{
		ModelDir:              "",
		CutoffRadiusMin:       4.0,
		CutoffRadiusMax:       4.0,
		GaussianParams2NumMin: 5,
		GaussianParams2NumMax: 5,
		Alpha:                 []float64{0.1, 1.0},
		NSplits:               3,
		TestRatio:             0.2,
		EnergyWeight:          1.0,
		ForceWeight:           1.0,
		HighEnergyWeights:     []float64{1.0},
		FeatureType:           "pair",
		CompositeNum:          1,
		PolynomialModel:       1,
		PolynomialMaxOrder:    1,
		NThreads:              1,
		LogLevel:              "disabled",
	}
}

func trimerPool(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	var structures = make([]dataset.Structure, 0, n)
	var ids = make([]int, 0, n)
	for i := 0; i < n; i++ {
		var r = 1.4 + 0.3*float64(i)
		structures = append(structures, dataset.Structure{
			Positions: [][3]float64{{0, 0, 0}, {r, 0, 0}, {0.3, r, 0.1}},
			Species:   []int{1, 1, 1},
			Energy:    -2.0/r - 0.5*float64(i%2),
		})
		ids = append(ids, i)
	}
	ds, err := dataset.New(structures, ids, false)
	require.NoError(t, err)
	return ds
}

func testGrid(t *testing.T, cfg *config.Config) *grid.Grid {
	t.Helper()
	g, err := grid.Make(grid.Bounds{
		CutoffRadiusMin:       cfg.CutoffRadiusMin,
		CutoffRadiusMax:       cfg.CutoffRadiusMax,
		GaussianParams2NumMin: cfg.GaussianParams2NumMin,
		GaussianParams2NumMax: cfg.GaussianParams2NumMax,
		Alpha:                 cfg.Alpha,
	})
	require.NoError(t, err)
	return g
}

func TestCrossValidate_TwoCandidatesThreeFolds(t *testing.T) {
	var cfg = testConfig()
	var kfold = trimerPool(t, 3)
	var cv = &CrossValidator{Config: cfg, Logger: zerolog.Nop(), Metric: MetricCombined, Threads: 1}

	model, params, report, err := cv.Run(context.Background(), testGrid(t, cfg), kfold, nil)
	require.NoError(t, err)
	require.NotNil(t, model)

	require.Len(t, report.Candidates, 2, "grid has exactly two points")
	for _, c := range report.Candidates {
		assert.Len(t, c.Folds, 3, "every candidate runs every fold")
	}

	var best = report.Candidates[report.BestIndex]
	for _, c := range report.Candidates {
		assert.LessOrEqual(t, best.MeanCombined, c.MeanCombined)
	}
	assert.True(t, best.Retained)
	assert.Equal(t, best.Params, params)
}

func TestCrossValidate_MeanWithinFoldRange(t *testing.T) {
	var cfg = testConfig()
	var kfold = trimerPool(t, 6)
	var cv = &CrossValidator{Config: cfg, Logger: zerolog.Nop(), Metric: MetricCombined, Threads: 1}

	_, _, report, err := cv.Run(context.Background(), testGrid(t, cfg), kfold, nil)
	require.NoError(t, err)

	for _, c := range report.Candidates {
		var lo, hi = c.Folds[0].Combined, c.Folds[0].Combined
		for _, f := range c.Folds {
			if f.Combined < lo {
				lo = f.Combined
			}
			if f.Combined > hi {
				hi = f.Combined
			}
		}
		assert.GreaterOrEqual(t, c.MeanCombined, lo)
		assert.LessOrEqual(t, c.MeanCombined, hi)
	}
}

func TestCrossValidate_RetainedModelHasNoFeatureMatrix(t *testing.T) {
	var cfg = testConfig()
	var kfold = trimerPool(t, 3)
	var cv = &CrossValidator{Config: cfg, Logger: zerolog.Nop(), Metric: MetricCombined, Threads: 1}

	model, _, _, err := cv.Run(context.Background(), testGrid(t, cfg), kfold, nil)
	require.NoError(t, err)
	assert.False(t, model.HasFeatures(),
		"the retained snapshot releases its matrix; final training rebuilds it")
}

func TestCrossValidate_TooFewSplits(t *testing.T) {
	var cfg = testConfig()
	cfg.NSplits = 1
	var cv = &CrossValidator{Config: cfg, Logger: zerolog.Nop(), Metric: MetricCombined, Threads: 1}
	_, _, _, err := cv.Run(context.Background(), testGrid(t, cfg), trimerPool(t, 3), nil)
	assert.ErrorIs(t, err, config.ErrTooFewSplits)
}

func TestCrossValidate_ForceMetricWithoutForces(t *testing.T) {
	var cfg = testConfig()
	var cv = &CrossValidator{Config: cfg, Logger: zerolog.Nop(), Metric: MetricForce, Threads: 1}
	_, _, _, err := cv.Run(context.Background(), testGrid(t, cfg), trimerPool(t, 3), nil)
	assert.ErrorIs(t, err, ErrForceMetric)
}

func TestCrossValidate_ParallelMatchesSequential(t *testing.T) {
	var cfg = testConfig()
	cfg.Alpha = []float64{0.05, 0.1, 0.5, 1.0}
	var kfold = trimerPool(t, 6)

	var sequential = &CrossValidator{Config: cfg, Logger: zerolog.Nop(), Metric: MetricCombined, Threads: 1}
	_, seqParams, seqReport, err := sequential.Run(context.Background(), testGrid(t, cfg), kfold, nil)
	require.NoError(t, err)

	var parallel = &CrossValidator{Config: cfg, Logger: zerolog.Nop(), Metric: MetricCombined, Threads: 3}
	_, parParams, parReport, err := parallel.Run(context.Background(), testGrid(t, cfg), kfold, nil)
	require.NoError(t, err)

	assert.Equal(t, seqParams, parParams)
	assert.Equal(t, seqReport.BestIndex, parReport.BestIndex)
	require.Len(t, parReport.Candidates, len(seqReport.Candidates))
	for i := range seqReport.Candidates {
		assert.Equal(t, seqReport.Candidates[i].MeanCombined, parReport.Candidates[i].MeanCombined)
	}
}

func TestCrossValidate_Cancelled(t *testing.T) {
	var cfg = testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var cv = &CrossValidator{Config: cfg, Logger: zerolog.Nop(), Metric: MetricCombined, Threads: 1}
	_, _, _, err := cv.Run(ctx, testGrid(t, cfg), trimerPool(t, 3), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
