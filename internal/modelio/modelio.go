package modelio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/potml/potgrid/internal/potential"
)

type scalerState struct {
	Mean  []float64 `json:"mean,omitempty"`
	Scale []float64 `json:"scale,omitempty"`
}

type modelState struct {
	Params potential.ModelParams `json:"params"`
	Coeffs []float64             `json:"coeffs"`
	Scaler *scalerState          `json:"scaler,omitempty"`
}

// Save persists the fitted model state as JSON. The feature matrix is
// deliberately not part of the artifact.
func Save(model *potential.Model, path string) error {
	var state = modelState{
		Params: model.Params,
		Coeffs: model.Coeffs(),
	}
	if s := model.Scaler(); s != nil {
		state.Scaler = &scalerState{Mean: s.Mean, Scale: s.Scale}
	}
	data, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load rebuilds a usable model from a saved artifact. The model can
// predict over fresh structures immediately; its feature matrix is rebuilt
// only if training is needed again.
func Load(path string) (*potential.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state modelState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := state.Params.SetAPIParams(); err != nil {
		return nil, err
	}
	model, err := potential.New(state.Params)
	if err != nil {
		return nil, err
	}
	var scaler *potential.Scaler
	if state.Scaler != nil {
		scaler = potential.NewScalerFromStats(state.Scaler.Mean, state.Scaler.Scale,
			state.Params.DeltaLearning)
	}
	model.Restore(state.Coeffs, scaler)
	return model, nil
}
