package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// RecordEnergyPredictionAccuracy writes per-structure predicted and
// expected energies, one pair per line, creating parent directories as
// needed.
func RecordEnergyPredictionAccuracy(predicted, expected []float64, outputFilename string) error {
	if len(predicted) != len(expected) {
		return fmt.Errorf("report: %d predictions against %d expectations",
			len(predicted), len(expected))
	}
	if err := os.MkdirAll(filepath.Dir(outputFilename), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputFilename)
	if err != nil {
		return err
	}
	defer f.Close()

	var w = bufio.NewWriter(f)
	fmt.Fprintln(w, "# predicted expected")
	for i := range predicted {
		fmt.Fprintf(w, "%.10e %.10e\n", predicted[i], expected[i])
	}
	return w.Flush()
}
