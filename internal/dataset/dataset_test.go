package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoAtomStructure(name string, energy float64, withForces bool) Structure {
	var st = Structure{
		Name:      name,
		Positions: [][3]float64{{0, 0, 0}, {1.5, 0, 0}},
		Species:   []int{1, 1},
		Energy:    energy,
	}
	if withForces {
		st.Forces = [][3]float64{{0.1, 0, 0}, {-0.1, 0, 0}}
	}
	return st
}

func TestNew_TargetLayout(t *testing.T) {
	var structures = []Structure{
		twoAtomStructure("a", -1.0, true),
		twoAtomStructure("b", -2.0, true),
	}
	ds, err := New(structures, []int{0, 1}, true)
	require.NoError(t, err)

	// energy block, then 6 force rows per structure
	require.Len(t, ds.Target, 2+2*6)
	assert.Equal(t, -1.0, ds.Target[0])
	assert.Equal(t, -2.0, ds.Target[1])
	assert.Equal(t, 0.1, ds.Target[2])
	assert.Equal(t, -0.1, ds.Target[5])

	unit, err := ds.ForceIDUnit()
	require.NoError(t, err)
	assert.Equal(t, 6, unit)
}

func TestNew_MissingForces(t *testing.T) {
	var structures = []Structure{twoAtomStructure("a", -1.0, false)}
	_, err := New(structures, []int{0}, true)
	assert.ErrorIs(t, err, ErrMissingForces)
}

func TestForceIDUnit_RaggedShape(t *testing.T) {
	var structures = []Structure{
		twoAtomStructure("a", -1.0, true),
		twoAtomStructure("b", -2.0, true),
	}
	ds, err := New(structures, []int{0, 1}, true)
	require.NoError(t, err)

	ds.Target = ds.Target[:len(ds.Target)-1]
	_, err = ds.ForceIDUnit()
	assert.ErrorIs(t, err, ErrRaggedShape)
}

func TestYidsForStructureIDs(t *testing.T) {
	var y = YidsForStructureIDs([]int{1}, 3, 6, true)
	assert.Equal(t, []int{1}, y.Energy)
	assert.Equal(t, []int{9, 10, 11, 12, 13, 14}, y.Force)
	assert.Equal(t, []int{1, 9, 10, 11, 12, 13, 14}, y.Target)
}

func TestYidsForStructureIDs_NoForce(t *testing.T) {
	var y = YidsForStructureIDs([]int{0, 2}, 3, 6, false)
	assert.Equal(t, []int{0, 2}, y.Energy)
	assert.Empty(t, y.Force)
	assert.Equal(t, []int{0, 2}, y.Target)
}

func TestKFoldSplit(t *testing.T) {
	var folds = KFoldSplit(10, 3, 0)
	require.Len(t, folds, 3)
	assert.Len(t, folds[0], 4)
	assert.Len(t, folds[1], 3)
	assert.Len(t, folds[2], 3)

	var seen = make(map[int]bool)
	for _, fold := range folds {
		for _, i := range fold {
			assert.False(t, seen[i], "index %d assigned twice", i)
			seen[i] = true
		}
	}
	assert.Len(t, seen, 10)

	assert.Equal(t, folds, KFoldSplit(10, 3, 0), "fixed seed must reproduce folds")
}

func TestComplement(t *testing.T) {
	assert.Equal(t, []int{0, 2, 4}, Complement([]int{1, 3}, 5))
}

func TestSplit_PoolsAreDisjoint(t *testing.T) {
	var structures = make([]Structure, 10)
	for i := range structures {
		structures[i] = twoAtomStructure("s", float64(-i), false)
	}
	kfold, test, err := Split(structures, 0.2, false)
	require.NoError(t, err)
	assert.Equal(t, 8, kfold.NStructures())
	assert.Equal(t, 2, test.NStructures())

	var seen = make(map[int]bool)
	for _, id := range append(append([]int(nil), kfold.IDs...), test.IDs...) {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, 10)
}
