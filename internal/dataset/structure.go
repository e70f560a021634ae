package dataset

// Structure is one atomic configuration with its reference energy and,
// optionally, per-atom forces and collinear spins.
type Structure struct {
	Name      string        `json:"name"`
	Lattice   [3][3]float64 `json:"lattice"`
	Positions [][3]float64  `json:"positions"`
	Species   []int         `json:"species"`
	Spins     []float64     `json:"spins,omitempty"`
	Energy    float64       `json:"energy"`
	Forces    [][3]float64  `json:"forces,omitempty"`
}

func (s *Structure) NAtoms() int {
	return len(s.Positions)
}

// Spin returns the spin of atom i, defaulting to 1 when no spins are stored.
func (s *Structure) Spin(i int) float64 {
	if len(s.Spins) == 0 {
		return 1
	}
	return s.Spins[i]
}
