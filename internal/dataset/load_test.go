package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFolder(t *testing.T) {
	var dir = t.TempDir()
	var files = map[string]string{
		"b.json": `{"positions": [[0,0,0]], "species": [1], "energy": -2.0}`,
		"a.json": `{"name": "first", "positions": [[0,0,0]], "species": [1], "energy": -1.0}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	structures, err := LoadFolder(context.Background(), dir, 2)
	require.NoError(t, err)
	require.Len(t, structures, 2)

	// file-name order, names defaulted from the file
	assert.Equal(t, "first", structures[0].Name)
	assert.Equal(t, -1.0, structures[0].Energy)
	assert.Equal(t, "b.json", structures[1].Name)
}

func TestLoadFolder_EmptyDir(t *testing.T) {
	_, err := LoadFolder(context.Background(), t.TempDir(), 1)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestLoadFolder_BadFile(t *testing.T) {
	var dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.json"), []byte("{"), 0o644))
	_, err := LoadFolder(context.Background(), dir, 4)
	assert.Error(t, err)
}

func TestHighEnergyIndex(t *testing.T) {
	var structures = []Structure{
		twoAtomStructure("a", -1, true),
		twoAtomStructure("b", -2, true),
		twoAtomStructure("c", -3, true),
	}
	// pool keeps full-dataset ids 0 and 2
	kfold, err := New([]Structure{structures[0], structures[2]}, []int{0, 2}, true)
	require.NoError(t, err)
	unit, err := kfold.ForceIDUnit()
	require.NoError(t, err)

	var path = filepath.Join(t.TempDir(), "high_energy_structures1")
	require.NoError(t, os.WriteFile(path, []byte("# flagged\n2\n1\n"), 0o644))

	ids, err := HighEnergyIndex(path, kfold, unit, true)
	require.NoError(t, err)
	// id 1 is in the test pool and resolves to nothing; id 2 is pool
	// position 1: energy row 1 plus its force rows
	assert.Equal(t, []int{1, 8, 9, 10, 11, 12, 13}, ids)
}
