package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrTooFewSplits   = errors.New("config: n_splits must be at least 2")
	ErrEmptyAlpha     = errors.New("config: alpha must list at least one candidate")
	ErrBadSearchBound = errors.New("config: search bound min exceeds max")
	ErrBadWeight      = errors.New("config: weights must be positive")
	ErrBadTestRatio   = errors.New("config: test_ratio must be in (0, 1)")
	ErrWeightMismatch = errors.New("config: high_energy_weights and high_energy_structure_files must have equal length")
)

// Config holds one run of the grid-searched potential trainer.
// Fields are read-only after Load.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	ModelDir string `mapstructure:"model_dir"`

	CutoffRadiusMin       float64   `mapstructure:"cutoff_radius_min"`
	CutoffRadiusMax       float64   `mapstructure:"cutoff_radius_max"`
	GaussianParams2NumMin int       `mapstructure:"gaussian_params2_num_min"`
	GaussianParams2NumMax int       `mapstructure:"gaussian_params2_num_max"`
	Alpha                 []float64 `mapstructure:"alpha"`

	NSplits      int     `mapstructure:"n_splits"`
	TestRatio    float64 `mapstructure:"test_ratio"`
	EnergyWeight float64 `mapstructure:"energy_weight"`
	ForceWeight  float64 `mapstructure:"force_weight"`

	HighEnergyWeights        []float64 `mapstructure:"high_energy_weights"`
	HighEnergyStructureFiles []string  `mapstructure:"high_energy_structure_files"`

	FeatureType         string `mapstructure:"feature_type"`
	CompositeNum        int    `mapstructure:"composite_num"`
	GtinvLmax           int    `mapstructure:"gtinv_lmax"`
	UseGtinvSym         bool   `mapstructure:"use_gtinv_sym"`
	UseForce            bool   `mapstructure:"use_force"`
	UseSpin             bool   `mapstructure:"use_spin"`
	GaussianParams2Flag int    `mapstructure:"gaussian_params2_flag"`
	PolynomialModel     int    `mapstructure:"polynomial_model"`
	PolynomialMaxOrder  int    `mapstructure:"polynomial_max_order"`
	IsParamagnetic      bool   `mapstructure:"is_paramagnetic"`
	DeltaLearning       bool   `mapstructure:"delta_learning"`

	NThreads int    `mapstructure:"n_threads"`
	LogLevel string `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("model_dir", "models")
	v.SetDefault("cutoff_radius_min", 6.0)
	v.SetDefault("cutoff_radius_max", 8.0)
	v.SetDefault("gaussian_params2_num_min", 10)
	v.SetDefault("gaussian_params2_num_max", 10)
	v.SetDefault("alpha", []float64{1e-3})
	v.SetDefault("n_splits", 10)
	v.SetDefault("test_ratio", 0.1)
	v.SetDefault("energy_weight", 1.0)
	v.SetDefault("force_weight", 1.0)
	v.SetDefault("high_energy_weights", []float64{1.0})
	v.SetDefault("feature_type", "pair")
	v.SetDefault("composite_num", 1)
	v.SetDefault("gtinv_lmax", 0)
	v.SetDefault("polynomial_model", 1)
	v.SetDefault("polynomial_max_order", 1)
	v.SetDefault("n_threads", runtime.NumCPU())
	v.SetDefault("log_level", "info")
}

// Load reads the yaml config at path. Any key can be overridden by a
// POTGRID_-prefixed environment variable.
func Load(path string) (*Config, error) {
	var v = viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("POTGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.NSplits < 2 {
		return ErrTooFewSplits
	}
	if len(c.Alpha) == 0 {
		return ErrEmptyAlpha
	}
	if c.CutoffRadiusMin > c.CutoffRadiusMax ||
		c.GaussianParams2NumMin > c.GaussianParams2NumMax {
		return ErrBadSearchBound
	}
	if c.EnergyWeight <= 0 || c.ForceWeight <= 0 {
		return ErrBadWeight
	}
	for _, w := range c.HighEnergyWeights {
		if w <= 0 {
			return ErrBadWeight
		}
	}
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		return ErrBadTestRatio
	}
	if len(c.HighEnergyStructureFiles) != 0 &&
		len(c.HighEnergyStructureFiles) != len(c.HighEnergyWeights) {
		return ErrWeightMismatch
	}
	if c.NThreads < 1 {
		c.NThreads = 1
	}
	return nil
}

// HighEnergyConfigured reports whether the override weighting path is active.
// A single group with weight 1.0 is a no-op and is skipped.
func (c *Config) HighEnergyConfigured() bool {
	if len(c.HighEnergyWeights) == 0 {
		return false
	}
	if len(c.HighEnergyWeights) == 1 && c.HighEnergyWeights[0] == 1.0 {
		return false
	}
	return true
}
