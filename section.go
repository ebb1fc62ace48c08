package tomo

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

// SectionOptions configures a vertical cross section along a great circle.
// The drawn arc runs from Pos0 extended backwards by BeforeExtensionDeg to
// Pos1 extended forwards by AfterExtensionDeg, both along the Pos0->Pos1
// azimuth. Zero-valued tuning fields fall back to defaults derived from the
// voxel field's typical spacing.
type SectionOptions struct {
	Pos0 HorizontalPosition
	Pos1 HorizontalPosition

	// Signed arc extensions in degrees before Pos0 and after Pos1.
	BeforeExtensionDeg float64
	AfterExtensionDeg  float64

	// Horizontal interpolation tolerance. MarginDeg wins when both are
	// set; MarginKm is converted through the field's mean radius. When
	// neither is set, half the field's typical latitude spacing is used.
	MarginDeg float64
	MarginKm  float64

	// Radial extrapolation tolerance in kilometers. Defaults to half the
	// field's typical radial spacing.
	RadiusMarginKm float64

	// Mosaic selects nearest-neighbor instead of smooth interpolation.
	Mosaic bool

	// SmoothingFactor refines the horizontal sample interval below the
	// source grid spacing; VerticalEnlargeFactor does the same for the
	// radial grid. Both default to 2.
	SmoothingFactor       float64
	VerticalEnlargeFactor float64

	// IntervalDeg and RadiusIntervalKm override the derived sample
	// intervals directly.
	IntervalDeg      float64
	RadiusIntervalKm float64

	// KeepRawRadii skips radial resampling: vertical traces stay on the
	// field's own distinct radii.
	KeepRawRadii bool

	// Workers bounds the resampling worker pool. Defaults to the number
	// of CPUs.
	Workers int
}

// CrossSection resamples a sparse voxel field along a great-circle vertical
// plane onto a regular (arc-distance, radius) grid.
type CrossSection struct {
	field *VoxelField
	opts  SectionOptions

	start      HorizontalPosition
	azimuth    float64
	lengthDeg  float64
	distances  []float64
	samples    []HorizontalPosition
	marginDeg  float64
	marginKm   float64
	radiusGrid []float64
}

// NewCrossSection derives the sampling arc and the target grids from the
// options and the field's typical spacing.
func NewCrossSection(field *VoxelField, opts SectionOptions) (*CrossSection, error) {
	if field == nil {
		return nil, fmt.Errorf("cross section needs a voxel field")
	}
	if opts.SmoothingFactor <= 0 {
		opts.SmoothingFactor = 2
	}
	if opts.VerticalEnlargeFactor <= 0 {
		opts.VerticalEnlargeFactor = 2
	}

	c := &CrossSection{field: field, opts: opts}

	c.marginDeg = opts.MarginDeg
	if c.marginDeg <= 0 && opts.MarginKm > 0 {
		c.marginDeg = opts.MarginKm / kmPerDeg(field.MeanRadius())
	}
	if c.marginDeg <= 0 {
		c.marginDeg = field.LatSpacingDeg() / 2
	}
	if c.marginDeg <= 0 {
		return nil, fmt.Errorf("horizontal margin is not set and cannot be derived from the field")
	}
	c.marginKm = opts.RadiusMarginKm
	if c.marginKm <= 0 {
		c.marginKm = field.RadiusSpacingKm() / 2
	}

	interval := opts.IntervalDeg
	if interval <= 0 {
		interval = field.LatSpacingDeg() / opts.SmoothingFactor
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sample interval is not set and cannot be derived from the field")
	}

	if opts.Pos0.Equals(opts.Pos1) {
		return nil, fmt.Errorf("cross section reference points coincide, arc direction is undefined")
	}

	azimuth := opts.Pos0.AzimuthTo(opts.Pos1)
	c.start = opts.Pos0.PointAt(azimuth, -opts.BeforeExtensionDeg)
	continuation := wrap360(opts.Pos1.AzimuthTo(opts.Pos0) + 180)
	end := opts.Pos1.PointAt(continuation, opts.AfterExtensionDeg)

	c.lengthDeg = c.start.DistanceDegTo(end)
	if c.lengthDeg <= 0 {
		return nil, fmt.Errorf("cross section arc has zero length")
	}
	c.azimuth = c.start.AzimuthTo(end)

	n := int(math.Round(c.lengthDeg/interval)) + 1
	if n < 2 {
		n = 2
	}
	step := c.lengthDeg / float64(n-1)
	c.distances = make([]float64, n)
	c.samples = make([]HorizontalPosition, n)
	for i := 0; i < n; i++ {
		c.distances[i] = float64(i) * step
		c.samples[i] = c.start.PointAt(c.azimuth, c.distances[i])
	}

	radii := field.Radii()
	if !opts.KeepRawRadii && len(radii) > 1 {
		dr := opts.RadiusIntervalKm
		if dr <= 0 {
			dr = field.RadiusSpacingKm() / opts.VerticalEnlargeFactor
		}
		if dr > 0 {
			for r := radii[0]; r <= radii[len(radii)-1]+dr/1e6; r += dr {
				c.radiusGrid = append(c.radiusGrid, r)
			}
		}
	}
	return c, nil
}

// Start returns the first point of the sampling arc.
func (c *CrossSection) Start() HorizontalPosition { return c.start }

// LengthDeg returns the arc length of the section in degrees.
func (c *CrossSection) LengthDeg() float64 { return c.lengthDeg }

// AzimuthDeg returns the initial azimuth of the sampling arc.
func (c *CrossSection) AzimuthDeg() float64 { return c.azimuth }

// SampleDistances returns the arc distances of all sample points.
func (c *CrossSection) SampleDistances() []float64 {
	out := make([]float64, len(c.distances))
	copy(out, c.distances)
	return out
}

// SamplePositions returns the horizontal positions of all sample points.
func (c *CrossSection) SamplePositions() []HorizontalPosition {
	out := make([]HorizontalPosition, len(c.samples))
	copy(out, c.samples)
	return out
}

// SectionTrace is the vertical trace of one arc sample: parallel radius and
// value arrays, ascending by radius.
type SectionTrace struct {
	DistanceDeg float64
	Position    HorizontalPosition
	Radii       []float64
	Values      []float64
}

// SectionSample is one resampled grid node, the 5-field record consumed by
// the plotting collaborator. Field order is part of the contract.
type SectionSample struct {
	DistanceDeg float64
	Latitude    float64
	Longitude   float64
	Radius      float64
	Value       float64
}

// SectionData is the dense output of a cross section: vertical traces keyed
// by ascending arc distance. Sample points with no data coverage are
// absent, never zero-filled.
type SectionData struct {
	Traces []SectionTrace
}

// Records flattens the section to one record per (arc-distance, radius)
// node, ordered by distance then radius.
func (d *SectionData) Records() []SectionSample {
	var out []SectionSample
	for _, t := range d.Traces {
		for i := range t.Radii {
			out = append(out, SectionSample{
				DistanceDeg: t.DistanceDeg,
				Latitude:    t.Position.Latitude,
				Longitude:   t.Position.Longitude,
				Radius:      t.Radii[i],
				Value:       t.Values[i],
			})
		}
	}
	return out
}

// Compute resamples the supplied voxel values onto the section grid. Every
// key of values must be a declared position of the field. Sample points are
// independent, so they are distributed over a bounded worker pool; each
// worker emits at most one trace per sample index and a single collector
// assembles the ordered result.
func (c *CrossSection) Compute(values map[FullPosition]float64) (*SectionData, error) {
	if err := c.field.CheckMembers(values); err != nil {
		return nil, err
	}

	workers := c.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(c.samples) {
		workers = len(c.samples)
	}

	type result struct {
		index int
		trace *SectionTrace
	}
	indexes := make(chan int)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results <- result{index: i, trace: c.sampleTrace(values, i)}
			}
		}()
	}
	go func() {
		for i := range c.samples {
			indexes <- i
		}
		close(indexes)
		wg.Wait()
		close(results)
	}()

	traces := make([]*SectionTrace, len(c.samples))
	for r := range results {
		traces[r.index] = r.trace
	}

	data := &SectionData{}
	for _, t := range traces {
		if t != nil {
			data.Traces = append(data.Traces, *t)
		}
	}
	return data, nil
}

// sampleTrace evaluates the vertical trace of one arc sample, or nil when
// no radius layer covers the sample position.
func (c *CrossSection) sampleTrace(values map[FullPosition]float64, index int) *SectionTrace {
	pos := c.samples[index]
	lon := c.field.lonOf(pos)
	lat := pos.Latitude

	var radii, vals []float64
	for _, layer := range c.field.layers {
		if v, ok := c.layerValue(values, layer, lat, lon); ok {
			radii = append(radii, layer.radius)
			vals = append(vals, v)
		}
	}
	if len(radii) == 0 {
		return nil
	}

	trace := &SectionTrace{DistanceDeg: c.distances[index], Position: pos}
	if c.radiusGrid == nil {
		trace.Radii = radii
		trace.Values = vals
		return trace
	}
	for _, r := range c.radiusGrid {
		if v, ok := interpolateRun(radii, vals, r, c.marginKm, c.opts.Mosaic); ok {
			trace.Radii = append(trace.Radii, r)
			trace.Values = append(trace.Values, v)
		}
	}
	if len(trace.Radii) == 0 {
		return nil
	}
	return trace
}

// layerValue interpolates one radius layer at the sample position: every
// west-east row is evaluated at the sample longitude, then the surviving
// (latitude, value) pairs are evaluated at the sample latitude. Both passes
// are gap-aware, so a sample falling into a coverage gap wider than the
// margin threshold yields no value.
func (c *CrossSection) layerValue(values map[FullPosition]float64, layer *voxelLayer, lat, lon float64) (float64, bool) {
	var lats, lineVals []float64
	for j, rowLat := range layer.lats {
		row := layer.rows[j]
		var xs, ys []float64
		for k, key := range row.keys {
			if v, ok := values[key]; ok {
				xs = append(xs, row.lons[k])
				ys = append(ys, v)
			}
		}
		if len(xs) == 0 {
			continue
		}
		if v, ok := interpolateRun(xs, ys, lon, c.marginDeg, c.opts.Mosaic); ok {
			lats = append(lats, rowLat)
			lineVals = append(lineVals, v)
		}
	}
	if len(lats) == 0 {
		return 0, false
	}
	return interpolateRun(lats, lineVals, lat, c.marginDeg, c.opts.Mosaic)
}

// interpolateRun locates the gap-free run containing x and interpolates it
// there with the margin/mosaic policy.
func interpolateRun(xs, ys []float64, x, margin float64, mosaic bool) (float64, bool) {
	start, end, ok := findRun(xs, x, margin)
	if !ok {
		return 0, false
	}
	t, err := NewTrace(xs[start:end+1], ys[start:end+1])
	if err != nil {
		return 0, false
	}
	return t.At(x, margin, mosaic)
}
