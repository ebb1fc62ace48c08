package tomo

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// GapFactor scales the run-cut threshold of the gap-aware splitter: two
// consecutive coordinates further apart than margin*GapFactor belong to
// different runs. The value 2.5 is empirically chosen and load-bearing for
// downstream masking; it is a tunable constant, not a derived quantity.
const GapFactor = 2.5

// splitRuns partitions a strictly ascending coordinate array into maximal
// contiguous runs, cutting wherever the gap between neighbors exceeds
// margin*GapFactor. It returns inclusive [start, end] index pairs.
func splitRuns(xs []float64, margin float64) [][2]int {
	if len(xs) == 0 {
		return nil
	}
	threshold := margin * GapFactor
	var runs [][2]int
	start := 0
	for i := 1; i < len(xs); i++ {
		if xs[i]-xs[i-1] > threshold {
			runs = append(runs, [2]int{start, i - 1})
			start = i
		}
	}
	return append(runs, [2]int{start, len(xs) - 1})
}

// findRun locates the run containing target within the extended range
// [run.first-margin, run.last+margin). Runs are scanned in order and the
// first qualifying run wins. It returns the inclusive index range of the
// run's raw coordinates, or ok=false when no run covers the target.
func findRun(xs []float64, target, margin float64) (start, end int, ok bool) {
	for _, run := range splitRuns(xs, margin) {
		if target >= xs[run[0]]-margin && target < xs[run[1]]+margin {
			return run[0], run[1], true
		}
	}
	return 0, 0, false
}

// Trace is a 1-D function sampled at arbitrary points: parallel x and y
// arrays with strictly ascending x. It answers margin-limited interpolation
// queries in smooth (piecewise linear) or mosaic (nearest neighbor) mode.
type Trace struct {
	xs, ys []float64
	pl     interp.PiecewiseLinear
}

// NewTrace builds a trace over parallel coordinate and value arrays. The
// coordinates must be strictly ascending. The arrays are copied, so later
// mutation of the caller's slices does not reach the trace.
func NewTrace(xs, ys []float64) (*Trace, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("coordinates (%d) and values (%d) differ in length", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("empty trace")
	}
	t := &Trace{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}
	if len(xs) >= 2 {
		if err := t.pl.Fit(t.xs, t.ys); err != nil {
			return nil, fmt.Errorf("trace coordinates must be strictly ascending: %w", err)
		}
	}
	return t, nil
}

// Len returns the number of samples.
func (t *Trace) Len() int { return len(t.xs) }

// X returns the i-th sample coordinate.
func (t *Trace) X(i int) float64 { return t.xs[i] }

// Y returns the i-th sample value.
func (t *Trace) Y(i int) float64 { return t.ys[i] }

// At evaluates the trace at x. Queries further than margin outside the
// sampled range have no value. Mosaic mode returns the nearest sample's
// value. Smooth mode interpolates linearly inside the sampled range and
// holds the edge value constant over the margin band outside it, so a query
// never extrapolates past the data by more than the margin.
func (t *Trace) At(x, margin float64, mosaic bool) (float64, bool) {
	n := len(t.xs)
	if x < t.xs[0]-margin || x > t.xs[n-1]+margin {
		return 0, false
	}
	if mosaic || n == 1 {
		return t.ys[t.nearest(x)], true
	}
	if x <= t.xs[0] {
		return t.ys[0], true
	}
	if x >= t.xs[n-1] {
		return t.ys[n-1], true
	}
	return t.pl.Predict(x), true
}

// nearest returns the index of the sample closest to x.
func (t *Trace) nearest(x float64) int {
	i := sort.SearchFloat64s(t.xs, x)
	if i == 0 {
		return 0
	}
	if i == len(t.xs) {
		return len(t.xs) - 1
	}
	if x-t.xs[i-1] <= t.xs[i]-x {
		return i - 1
	}
	return i
}
