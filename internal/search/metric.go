package search

// Metric selects which aggregated fold score drives candidate retention.
// Combined is the default; the energy and force variants exist as scoring
// strategies but are not currently reachable from run configuration.
type Metric int

const (
	MetricCombined Metric = iota
	MetricEnergy
	MetricForce
)

func (m Metric) String() string {
	switch m {
	case MetricEnergy:
		return "energy"
	case MetricForce:
		return "force"
	default:
		return "combined"
	}
}

func (m Metric) score(c *CandidateReport) float64 {
	switch m {
	case MetricEnergy:
		return c.MeanEnergy
	case MetricForce:
		return c.MeanForce
	default:
		return c.MeanCombined
	}
}
