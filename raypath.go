package tomo

import (
	"errors"
	"fmt"
	"math"
)

// PathSample is one discretized point of a raypath as reported by an
// external travel-time tool: the cumulative arc distance from the source in
// degrees and the position of the sample.
type PathSample struct {
	DistanceDeg float64
	Position    FullPosition
}

// PathSampler is the external travel-time/pierce-point tool. It returns the
// ordered samples of the named seismic phase between source and receiver.
// Travel-time computation itself is outside this package.
type PathSampler interface {
	SamplePath(source, receiver FullPosition, phase string) ([]PathSample, error)
}

// Raypath is an ordered, immutable sequence of at least two positions
// (source, intermediate points, receiver) paired with the cumulative arc
// distances from the first point, plus a phase label. Clipping produces new
// independent raypaths with distances re-based to start at 0.
type Raypath struct {
	phase     string
	positions []FullPosition
	distances []float64
}

// NewRaypath builds a raypath from parallel position and distance arrays.
// The arrays must have equal length >= 2, distances must start at 0 and be
// non-decreasing; violations are programmer errors in the caller and fail
// immediately.
func NewRaypath(phase string, positions []FullPosition, distances []float64) (*Raypath, error) {
	if len(positions) != len(distances) {
		return nil, fmt.Errorf("positions (%d) and distances (%d) differ in length", len(positions), len(distances))
	}
	if len(positions) < 2 {
		return nil, fmt.Errorf("raypath needs at least 2 points, got %d", len(positions))
	}
	if math.Abs(distances[0]) > Epsilon {
		return nil, fmt.Errorf("distances must start at 0, got %v", distances[0])
	}
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[i-1] {
			return nil, fmt.Errorf("distances must be non-decreasing, got %v after %v at index %d",
				distances[i], distances[i-1], i)
		}
	}
	p := &Raypath{
		phase:     phase,
		positions: make([]FullPosition, len(positions)),
		distances: make([]float64, len(distances)),
	}
	copy(p.positions, positions)
	copy(p.distances, distances)
	return p, nil
}

// NewDirectRaypath builds the two-point raypath from source straight to
// receiver, used when no discretized path is available.
func NewDirectRaypath(source, receiver FullPosition, phase string) *Raypath {
	return &Raypath{
		phase:     phase,
		positions: []FullPosition{source, receiver},
		distances: []float64{0, source.DistanceDegTo(receiver.HorizontalPosition)},
	}
}

// NewRaypathFromSamples builds a raypath from travel-time tool output,
// re-basing the distances to start at 0.
func NewRaypathFromSamples(phase string, samples []PathSample) (*Raypath, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("raypath needs at least 2 samples, got %d", len(samples))
	}
	positions := make([]FullPosition, len(samples))
	distances := make([]float64, len(samples))
	for i, s := range samples {
		positions[i] = s.Position
		distances[i] = s.DistanceDeg - samples[0].DistanceDeg
	}
	return NewRaypath(phase, positions, distances)
}

// Phase returns the seismic phase label.
func (p *Raypath) Phase() string { return p.phase }

// Len returns the number of path points.
func (p *Raypath) Len() int { return len(p.positions) }

// Position returns the i-th path point.
func (p *Raypath) Position(i int) FullPosition { return p.positions[i] }

// DistanceDeg returns the cumulative arc distance of the i-th point.
func (p *Raypath) DistanceDeg(i int) float64 { return p.distances[i] }

// LengthDeg returns the total arc distance of the path.
func (p *Raypath) LengthDeg() float64 { return p.distances[len(p.distances)-1] }

// Source returns the first path point.
func (p *Raypath) Source() FullPosition { return p.positions[0] }

// Receiver returns the last path point.
func (p *Raypath) Receiver() FullPosition { return p.positions[len(p.positions)-1] }

// Positions returns a copy of the path points.
func (p *Raypath) Positions() []FullPosition {
	out := make([]FullPosition, len(p.positions))
	copy(out, p.positions)
	return out
}

// Distances returns a copy of the cumulative arc distances.
func (p *Raypath) Distances() []float64 {
	out := make([]float64, len(p.distances))
	copy(out, p.distances)
	return out
}

// clip materializes the sub-path over the inclusive index range
// [start, end], with distances re-based to start at 0. A range covering
// fewer than two points is rejected rather than producing a degenerate
// single-point raypath.
func (p *Raypath) clip(start, end int) (*Raypath, error) {
	if start < 0 || end >= len(p.positions) || end-start+1 < 2 {
		return nil, fmt.Errorf("cannot clip range [%d, %d] out of %d points", start, end, len(p.positions))
	}
	positions := make([]FullPosition, end-start+1)
	copy(positions, p.positions[start:end+1])
	distances := make([]float64, end-start+1)
	for i := range distances {
		distances[i] = p.distances[start+i] - p.distances[start]
	}
	return &Raypath{phase: p.phase, positions: positions, distances: distances}, nil
}

// insideShell reports whether r lies in [lo, hi], counting radii on either
// boundary (within Epsilon) as inside.
func insideShell(r, lo, hi float64) bool {
	if sameCoordinate(r, lo) || sameCoordinate(r, hi) {
		return true
	}
	return r > lo && r < hi
}

// ClipInsideLayer returns the maximal sub-paths whose sample radii all lie
// within the radial shell [lowerRadius, upperRadius]. A radius exactly on a
// boundary (within Epsilon) belongs to the run at every index, the path
// start included: clipped segments can begin on a boundary sample, and
// re-clipping such a segment returns it unchanged. Segment endpoints are
// existing samples only; a boundary crossing between two samples is not
// interpolated, so segments can come out shorter than the geometric
// intersection when the discretization is coarse. Runs of fewer than two
// points are discarded.
func (p *Raypath) ClipInsideLayer(lowerRadius, upperRadius float64) []*Raypath {
	var out []*Raypath
	open := -1
	for i, pos := range p.positions {
		if insideShell(pos.Radius, lowerRadius, upperRadius) {
			if open < 0 {
				open = i
			}
			continue
		}
		if open >= 0 {
			if seg, err := p.clip(open, i-1); err == nil {
				out = append(out, seg)
			}
			open = -1
		}
	}
	if open >= 0 {
		if seg, err := p.clip(open, len(p.positions)-1); err == nil {
			out = append(out, seg)
		}
	}
	return out
}

// ClipOutsideLayer returns the maximal sub-paths lying outside the radial
// shell [lowerRadius, upperRadius]. Below-shell and above-shell runs are
// tracked independently; a point exactly on the lower boundary continues a
// below run, a point exactly on the upper boundary continues an above run,
// and a point strictly between the boundaries closes any open run.
func (p *Raypath) ClipOutsideLayer(lowerRadius, upperRadius float64) []*Raypath {
	var out []*Raypath
	belowOpen, aboveOpen := -1, -1

	closeRun := func(open *int, end int) {
		if *open < 0 {
			return
		}
		if seg, err := p.clip(*open, end); err == nil {
			out = append(out, seg)
		}
		*open = -1
	}

	for i, pos := range p.positions {
		r := pos.Radius
		below := r < lowerRadius || sameCoordinate(r, lowerRadius)
		above := r > upperRadius || sameCoordinate(r, upperRadius)
		switch {
		case below:
			closeRun(&aboveOpen, i-1)
			if belowOpen < 0 {
				belowOpen = i
			}
		case above:
			closeRun(&belowOpen, i-1)
			if aboveOpen < 0 {
				aboveOpen = i
			}
		default:
			closeRun(&belowOpen, i-1)
			closeRun(&aboveOpen, i-1)
		}
	}
	closeRun(&belowOpen, len(p.positions)-1)
	closeRun(&aboveOpen, len(p.positions)-1)
	return out
}

// turningIndices lists the interior indices that are non-strict local
// minima of the radius profile. Every index of a flat plateau qualifies on
// its own; plateaus are deliberately not collapsed to a single point.
func (p *Raypath) turningIndices() []int {
	var idx []int
	for i := 1; i < len(p.positions)-1; i++ {
		r := p.positions[i].Radius
		if r <= p.positions[i-1].Radius && r <= p.positions[i+1].Radius {
			idx = append(idx, i)
		}
	}
	return idx
}

// bouncingIndices lists the interior indices that are non-strict local
// maxima of the radius profile, with the same plateau behavior as
// turningIndices.
func (p *Raypath) bouncingIndices() []int {
	var idx []int
	for i := 1; i < len(p.positions)-1; i++ {
		r := p.positions[i].Radius
		if r >= p.positions[i-1].Radius && r >= p.positions[i+1].Radius {
			idx = append(idx, i)
		}
	}
	return idx
}

// TurningPoints returns the positions of all local radius minima along the
// path, in path order.
func (p *Raypath) TurningPoints() []FullPosition {
	idx := p.turningIndices()
	out := make([]FullPosition, len(idx))
	for i, j := range idx {
		out[i] = p.positions[j]
	}
	return out
}

// CeilBouncingPoints returns the positions of all local radius maxima along
// the path, in path order.
func (p *Raypath) CeilBouncingPoints() []FullPosition {
	idx := p.bouncingIndices()
	out := make([]FullPosition, len(idx))
	for i, j := range idx {
		out[i] = p.positions[j]
	}
	return out
}

// TurningAzimuthDeg returns the azimuth from the index-th turning point
// toward the receiver, in [0, 360). It fails with a range error when the
// path has no such turning point.
func (p *Raypath) TurningAzimuthDeg(index int) (float64, error) {
	idx := p.turningIndices()
	if index < 0 || index >= len(idx) {
		return 0, fmt.Errorf("turning point %d out of range, path has %d", index, len(idx))
	}
	return p.positions[idx[index]].AzimuthTo(p.Receiver().HorizontalPosition), nil
}

var errEmptyPath = errors.New("travel-time tool returned no samples")

// SampleRaypath asks the external travel-time tool for the discretized path
// of the given phase and wraps the result as a Raypath.
func SampleRaypath(sampler PathSampler, source, receiver FullPosition, phase string) (*Raypath, error) {
	samples, err := sampler.SamplePath(source, receiver, phase)
	if err != nil {
		return nil, fmt.Errorf("sampling %s path: %w", phase, err)
	}
	if len(samples) == 0 {
		return nil, errEmptyPath
	}
	return NewRaypathFromSamples(phase, samples)
}
