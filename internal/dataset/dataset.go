package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyDataset  = errors.New("dataset: no structures")
	ErrRaggedShape   = errors.New("dataset: target length inconsistent with structure count")
	ErrUnevenAtoms   = errors.New("dataset: structures have differing atom counts")
	ErrMissingForces = errors.New("dataset: force data missing while use_force is set")
)

// Dataset couples a structure list with the flat target vector the model
// trains against. The first NStructures entries of Target are per-structure
// energies; the rest are force components, ForceIDUnit per structure.
type Dataset struct {
	Structures []Structure
	Target     []float64
	// IDs are the positions of the structures in the full (pre-split)
	// dataset ordering. Needed to resolve high-energy group membership.
	IDs []int
}

// New assembles the target vector from the structures' stored energies and
// forces. Force components are laid out structure-major, xyz within atom.
func New(structures []Structure, ids []int, useForce bool) (*Dataset, error) {
	if len(structures) == 0 {
		return nil, ErrEmptyDataset
	}
	var nAtoms = structures[0].NAtoms()
	var target = make([]float64, 0, len(structures))
	for i := range structures {
		target = append(target, structures[i].Energy)
	}
	if useForce {
		for i := range structures {
			var st = &structures[i]
			if st.NAtoms() != nAtoms {
				return nil, fmt.Errorf("%w: %q has %d atoms, want %d",
					ErrUnevenAtoms, st.Name, st.NAtoms(), nAtoms)
			}
			if len(st.Forces) != st.NAtoms() {
				return nil, fmt.Errorf("%w: %q", ErrMissingForces, st.Name)
			}
			for _, f := range st.Forces {
				target = append(target, f[0], f[1], f[2])
			}
		}
	}
	return &Dataset{Structures: structures, Target: target, IDs: ids}, nil
}

func (d *Dataset) NStructures() int {
	return len(d.Structures)
}

func (d *Dataset) NAtomsInStructure() int {
	return d.Structures[0].NAtoms()
}

// ForceIDUnit is the number of force rows each structure contributes to the
// target vector. The derivation must divide evenly; a remainder means the
// target vector was built against a different structure set.
func (d *Dataset) ForceIDUnit() (int, error) {
	var n = d.NStructures()
	var unit = len(d.Target)/n - 1
	if n*(unit+1) != len(d.Target) {
		return 0, fmt.Errorf("%w: %d targets over %d structures",
			ErrRaggedShape, len(d.Target), n)
	}
	return unit, nil
}
