package dataset

import "math/rand"

// Yids are row indices into a target vector, split by block. Target is
// Energy followed by Force.
type Yids struct {
	Energy []int
	Force  []int
	Target []int
}

// YidsForStructureIDs translates structure-level indices (positions within a
// pool) into target-vector row indices. Energy rows coincide with structure
// indices; each structure then owns forceIDUnit consecutive force rows past
// the energy block.
func YidsForStructureIDs(structureIDs []int, nStructure, forceIDUnit int, useForce bool) Yids {
	var y Yids
	y.Energy = append(y.Energy, structureIDs...)
	if useForce {
		for _, sid := range structureIDs {
			var begin = nStructure + sid*forceIDUnit
			for j := 0; j < forceIDUnit; j++ {
				y.Force = append(y.Force, begin+j)
			}
		}
	}
	y.Target = make([]int, 0, len(y.Energy)+len(y.Force))
	y.Target = append(y.Target, y.Energy...)
	y.Target = append(y.Target, y.Force...)
	return y
}

// KFoldSplit partitions 0..n-1 into k validation folds after a fixed-seed
// shuffle, mirroring a shuffled k-fold splitter with random_state=0: the
// first n%k folds get one extra index, folds are contiguous runs of the
// shuffled order.
func KFoldSplit(n, k int, seed int64) [][]int {
	var perm = make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	var rnd = rand.New(rand.NewSource(seed))
	rnd.Shuffle(n, func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})

	var folds = make([][]int, 0, k)
	var start = 0
	for f := 0; f < k; f++ {
		var size = n / k
		if f < n%k {
			size++
		}
		folds = append(folds, perm[start:start+size])
		start += size
	}
	return folds
}

// Complement returns the structure indices of 0..n-1 not present in fold.
func Complement(fold []int, n int) []int {
	var inFold = make([]bool, n)
	for _, i := range fold {
		inFold[i] = true
	}
	var result = make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if !inFold[i] {
			result = append(result, i)
		}
	}
	return result
}
