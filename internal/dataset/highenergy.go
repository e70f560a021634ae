package dataset

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// HighEnergyIndex reads one group file listing full-dataset structure ids
// and resolves them to target-vector row indices of the k-fold pool. Ids
// that fell into the test pool are ignored; they carry no training rows.
func HighEnergyIndex(path string, kfold *Dataset, forceIDUnit int, useForce bool) ([]int, error) {
	ids, err := readIDFile(path)
	if err != nil {
		return nil, err
	}

	var poolPos = make(map[int]int, kfold.NStructures())
	for pos, id := range kfold.IDs {
		poolPos[id] = pos
	}

	var structureIDs []int
	for _, id := range ids {
		if pos, ok := poolPos[id]; ok {
			structureIDs = append(structureIDs, pos)
		}
	}
	sort.Ints(structureIDs)

	var yids = YidsForStructureIDs(structureIDs, kfold.NStructures(), forceIDUnit, useForce)
	return yids.Target, nil
}

func readIDFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var result []int
	var scanner = bufio.NewScanner(f)
	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		result = append(result, id)
	}
	return result, scanner.Err()
}
