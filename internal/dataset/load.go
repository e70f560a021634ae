package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LoadFolder reads every *.json structure file under dir, in parallel,
// and returns the structures in file-name order so the dataset ordering
// is stable across runs.
func LoadFolder(ctx context.Context, dir string, threads int) ([]Structure, error) {
	paths, err := structureFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no structure files in %s", ErrEmptyDataset, dir)
	}
	if threads < 1 {
		threads = 1
	}

	g, ctx := errgroup.WithContext(ctx)

	var jobs = make(chan int, 16)
	g.Go(func() error {
		defer close(jobs)
		for i := range paths {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case jobs <- i:
			}
		}
		return nil
	})

	var result = make([]Structure, len(paths))
	var wg = &sync.WaitGroup{}
	for t := 0; t < threads; t++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for i := range jobs {
				var st, err = loadStructure(paths[i])
				if err != nil {
					return err
				}
				result[i] = st
			}
			return nil
		})
	}
	g.Go(func() error {
		wg.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func loadStructure(path string) (Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Structure{}, err
	}
	var st Structure
	if err := json.Unmarshal(data, &st); err != nil {
		return Structure{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if st.Name == "" {
		st.Name = filepath.Base(path)
	}
	if len(st.Positions) == 0 {
		return Structure{}, fmt.Errorf("%s: structure has no atoms", path)
	}
	return st, nil
}

func structureFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, de := range entries {
		if !de.IsDir() && filepath.Ext(de.Name()) == ".json" {
			result = append(result, filepath.Join(dir, de.Name()))
		}
	}
	sort.Strings(result)
	return result, nil
}

// Split shuffles the structure indices with a fixed seed and carves off
// testRatio of them as the held-out pool. The remaining structures form the
// k-fold pool. Returned datasets keep their original dataset indices.
func Split(structures []Structure, testRatio float64, useForce bool) (kfold, test *Dataset, err error) {
	var n = len(structures)
	var ids = make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	var rnd = rand.New(rand.NewSource(0))
	rnd.Shuffle(n, func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	var nTest = int(math.Round(float64(n) * testRatio))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		return nil, nil, fmt.Errorf("dataset: test_ratio %v leaves no training data", testRatio)
	}

	test, err = subset(structures, ids[:nTest], useForce)
	if err != nil {
		return nil, nil, err
	}
	kfold, err = subset(structures, ids[nTest:], useForce)
	if err != nil {
		return nil, nil, err
	}
	return kfold, test, nil
}

func subset(structures []Structure, ids []int, useForce bool) (*Dataset, error) {
	var sorted = append([]int(nil), ids...)
	sort.Ints(sorted)
	var picked = make([]Structure, 0, len(sorted))
	for _, id := range sorted {
		picked = append(picked, structures[id])
	}
	return New(picked, sorted, useForce)
}
