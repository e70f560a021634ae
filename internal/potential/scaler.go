package potential

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature columns. Statistics are fit on energy rows
// only; force rows are derivatives of the energy features, so they receive
// the variance scaling but not the centering (a shift has zero derivative).
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
	// skipCol marks the delta-learning bias column, which is left as is.
	skipCol int
}

func newScaler(skipCol int) *Scaler {
	return &Scaler{skipCol: skipCol}
}

// NewScalerFromStats rebuilds a fitted scaler from persisted statistics.
func NewScalerFromStats(mean, scale []float64, skipBias bool) *Scaler {
	var skipCol = -1
	if skipBias {
		skipCol = 0
	}
	return &Scaler{Mean: mean, Scale: scale, skipCol: skipCol}
}

// Fit computes per-column mean and standard deviation over the first
// nEnergyRows rows of x.
func (s *Scaler) Fit(x *mat.Dense, nEnergyRows int) {
	var _, cols = x.Dims()
	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)
	var col = make([]float64, nEnergyRows)
	for c := 0; c < cols; c++ {
		if c == s.skipCol {
			s.Mean[c] = 0
			s.Scale[c] = 1
			continue
		}
		for r := 0; r < nEnergyRows; r++ {
			col[r] = x.At(r, c)
		}
		var mean, std = stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[c] = mean
		s.Scale[c] = std
	}
}

// Transform applies the fitted statistics in place.
func (s *Scaler) Transform(x *mat.Dense, nEnergyRows int) {
	var rows, cols = x.Dims()
	for c := 0; c < cols; c++ {
		if c == s.skipCol {
			continue
		}
		var mean = s.Mean[c]
		var scale = s.Scale[c]
		for r := 0; r < rows; r++ {
			var v = x.At(r, c)
			if r < nEnergyRows {
				v -= mean
			}
			x.Set(r, c, v/scale)
		}
	}
}

func (s *Scaler) clone() *Scaler {
	if s == nil {
		return nil
	}
	return &Scaler{
		Mean:    append([]float64(nil), s.Mean...),
		Scale:   append([]float64(nil), s.Scale...),
		skipCol: s.skipCol,
	}
}
