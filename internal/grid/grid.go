package grid

import (
	"errors"
	"fmt"
)

var ErrEmptyGrid = errors.New("grid: empty parameter grid")

// Point is one concrete assignment of the searched dimensions.
type Point struct {
	CutoffRadius       float64
	GaussianParams2Num int
	Alpha              float64
}

func (p Point) String() string {
	return fmt.Sprintf("cutoff_radius=%v gaussian_params2_num=%v alpha=%v",
		p.CutoffRadius, p.GaussianParams2Num, p.Alpha)
}

// Grid holds the ordered candidate values of every searched dimension.
type Grid struct {
	CutoffRadius       []float64
	GaussianParams2Num []int
	Alpha              []float64
}

// Bounds are the search bounds a grid is expanded from.
type Bounds struct {
	CutoffRadiusMin       float64
	CutoffRadiusMax       float64
	GaussianParams2NumMin int
	GaussianParams2NumMax int
	Alpha                 []float64
}

// Make expands the bounds into the finite candidate sets. The cutoff-radius
// count is int((max-min)/2)+1 over a linspace; the gaussian count steps by 5
// from min through max inclusive. Preserved as is: an odd radius span yields
// fewer points than a naive half-step expectation.
func Make(b Bounds) (*Grid, error) {
	var g = &Grid{
		CutoffRadius:       linspace(b.CutoffRadiusMin, b.CutoffRadiusMax, int((b.CutoffRadiusMax-b.CutoffRadiusMin)/2.0)+1),
		GaussianParams2Num: arange(b.GaussianParams2NumMin, b.GaussianParams2NumMax, 5),
		Alpha:              append([]float64(nil), b.Alpha...),
	}
	if len(g.CutoffRadius) == 0 || len(g.GaussianParams2Num) == 0 || len(g.Alpha) == 0 {
		return nil, ErrEmptyGrid
	}
	return g, nil
}

func (g *Grid) Size() int {
	return len(g.CutoffRadius) * len(g.GaussianParams2Num) * len(g.Alpha)
}

// SinglePoint reports whether every dimension degenerated to one candidate,
// which makes cross-validation pointless.
func (g *Grid) SinglePoint() bool {
	return g.Size() == 1
}

// Points enumerates the cartesian product in deterministic order: cutoff
// radius slowest, alpha fastest.
func (g *Grid) Points() []Point {
	var points = make([]Point, 0, g.Size())
	for _, rc := range g.CutoffRadius {
		for _, gn := range g.GaussianParams2Num {
			for _, alpha := range g.Alpha {
				points = append(points, Point{
					CutoffRadius:       rc,
					GaussianParams2Num: gn,
					Alpha:              alpha,
				})
			}
		}
	}
	return points
}

func linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	var result = make([]float64, n)
	var step = (hi - lo) / float64(n-1)
	for i := range result {
		result[i] = lo + float64(i)*step
	}
	return result
}

// arange matches half-open integer range semantics over [lo, hi+step): a
// span that is not a step multiple yields one candidate past hi.
func arange(lo, hi, step int) []int {
	var result []int
	for v := lo; v < hi+step; v += step {
		result = append(result, v)
	}
	return result
}
