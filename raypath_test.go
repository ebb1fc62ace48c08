package tomo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pathWithRadii builds a raypath along the equator whose radius profile is
// the given sequence, one point every 5 degrees.
func pathWithRadii(t *testing.T, radii []float64) *Raypath {
	positions := make([]FullPosition, len(radii))
	distances := make([]float64, len(radii))
	for i, r := range radii {
		positions[i] = FullPosition{
			HorizontalPosition: HorizontalPosition{Latitude: 0, Longitude: float64(i) * 5},
			Radius:             r,
		}
		distances[i] = float64(i) * 5
	}
	p, err := NewRaypath("S", positions, distances)
	require.NoError(t, err)
	return p
}

func TestNewRaypathValidation(t *testing.T) {
	a := assert.New(t)

	p0 := FullPosition{Radius: 6371}
	p1 := FullPosition{HorizontalPosition: HorizontalPosition{Longitude: 10}, Radius: 6371}

	_, err := NewRaypath("S", []FullPosition{p0, p1}, []float64{0})
	a.Error(err)

	_, err = NewRaypath("S", []FullPosition{p0}, []float64{0})
	a.Error(err)

	_, err = NewRaypath("S", []FullPosition{p0, p1}, []float64{1, 2})
	a.Error(err)

	_, err = NewRaypath("S", []FullPosition{p0, p1}, []float64{0, -1})
	a.Error(err)

	p, err := NewRaypath("S", []FullPosition{p0, p1}, []float64{0, 10})
	a.NoError(err)
	a.Equal("S", p.Phase())
	a.Equal(2, p.Len())
}

func TestDirectRaypath(t *testing.T) {
	a := assert.New(t)

	source := FullPosition{HorizontalPosition: HorizontalPosition{Latitude: 0, Longitude: 0}, Radius: 6000}
	receiver := FullPosition{HorizontalPosition: HorizontalPosition{Latitude: 0, Longitude: 30}, Radius: 6371}

	p := NewDirectRaypath(source, receiver, "Sdiff")
	a.Equal(2, p.Len())
	a.InDelta(0, p.DistanceDeg(0), 1e-12)
	a.InDelta(30, p.LengthDeg(), 1e-9)
	a.True(p.Source().Equals(source))
	a.True(p.Receiver().Equals(receiver))
}

func TestRaypathFromSamples(t *testing.T) {
	a := assert.New(t)

	samples := []PathSample{
		{DistanceDeg: 5, Position: FullPosition{Radius: 6371}},
		{DistanceDeg: 8, Position: FullPosition{HorizontalPosition: HorizontalPosition{Longitude: 3}, Radius: 5000}},
		{DistanceDeg: 11, Position: FullPosition{HorizontalPosition: HorizontalPosition{Longitude: 6}, Radius: 6371}},
	}
	p, err := NewRaypathFromSamples("ScS", samples)
	a.NoError(err)
	a.InDelta(0, p.DistanceDeg(0), 1e-12)
	a.InDelta(6, p.LengthDeg(), 1e-12)
}

func TestClipInsideLayer(t *testing.T) {
	a := assert.New(t)

	p := pathWithRadii(t, []float64{6371, 5000, 3700, 3500, 3700, 5000, 6371})
	segments := p.ClipInsideLayer(3480, 3880)
	require.Len(t, segments, 1)

	seg := segments[0]
	a.Equal(3, seg.Len())
	a.InDelta(0, seg.DistanceDeg(0), 1e-12)
	a.InDelta(10, seg.LengthDeg(), 1e-12)
	for i := 0; i < seg.Len(); i++ {
		r := seg.Position(i).Radius
		a.GreaterOrEqual(r, 3480-Epsilon)
		a.LessOrEqual(r, 3880+Epsilon)
	}

	// Re-clipping a clipped segment to the same shell is idempotent.
	again := seg.ClipInsideLayer(3480, 3880)
	require.Len(t, again, 1)
	a.Equal(seg.Positions(), again[0].Positions())
	a.Equal(seg.Distances(), again[0].Distances())
}

func TestClipInsideBoundaryStart(t *testing.T) {
	a := assert.New(t)

	// Source and receiver sit exactly on the upper shell boundary; they
	// belong to the run like any interior boundary-equal sample, so the
	// whole path is one segment.
	p := pathWithRadii(t, []float64{6371, 5000, 3480, 5000, 6371})
	segments := p.ClipInsideLayer(3480, 6371)
	require.Len(t, segments, 1)
	a.Equal(5, segments[0].Len())
	a.InDelta(6371, segments[0].Position(0).Radius, 1e-12)
	a.InDelta(6371, segments[0].Position(4).Radius, 1e-12)

	// A segment opened by a boundary-equal sample re-clips to itself.
	q := pathWithRadii(t, []float64{6371, 3880, 3700, 6371})
	inside := q.ClipInsideLayer(3480, 3880)
	require.Len(t, inside, 1)
	a.Equal(2, inside[0].Len())
	a.InDelta(3880, inside[0].Position(0).Radius, 1e-12)

	again := inside[0].ClipInsideLayer(3480, 3880)
	require.Len(t, again, 1)
	a.Equal(inside[0].Positions(), again[0].Positions())
	a.Equal(inside[0].Distances(), again[0].Distances())
}

func TestClipInsideCoarseDiscretization(t *testing.T) {
	// The path dips through the shell between samples, but no sample is
	// recorded inside it: the clip must come back empty instead of
	// inventing boundary crossings.
	p := pathWithRadii(t, []float64{6371, 4000, 3000, 4000, 6371})
	assert.Empty(t, p.ClipInsideLayer(3480, 3880))
}

func TestClipInsideBoundaryTouch(t *testing.T) {
	a := assert.New(t)

	p := pathWithRadii(t, []float64{6371, 5000, 3480, 5000, 6371})

	// The single boundary-touching sample forms a run of length 1, which
	// is below the minimum segment length and discarded.
	a.Empty(p.ClipInsideLayer(3480, 3880))

	// The touching point is still a turning point.
	turning := p.TurningPoints()
	require.Len(t, turning, 1)
	a.InDelta(3480, turning[0].Radius, 1e-12)
}

func TestClipComplementary(t *testing.T) {
	a := assert.New(t)

	p := pathWithRadii(t, []float64{6371, 5000, 3700, 3500, 3700, 5000, 6371})
	inside := p.ClipInsideLayer(3480, 3880)
	outside := p.ClipOutsideLayer(3480, 3880)

	// No sample sits exactly on a boundary, so inside and outside
	// segments together account for every index exactly once.
	total := 0
	for _, s := range inside {
		total += s.Len()
	}
	for _, s := range outside {
		total += s.Len()
	}
	a.Equal(p.Len(), total)
	a.Len(inside, 1)
	a.Len(outside, 2)
}

func TestClipOutsideLayer(t *testing.T) {
	a := assert.New(t)

	p := pathWithRadii(t, []float64{6371, 3880, 3700, 3480, 3300, 3480, 3700, 3880, 6371})
	segments := p.ClipOutsideLayer(3480, 3880)
	require.Len(t, segments, 3)

	// Above run: indices 0-1, the upper-boundary sample continues it.
	a.Equal(2, segments[0].Len())
	a.InDelta(6371, segments[0].Position(0).Radius, 1e-12)
	a.InDelta(3880, segments[0].Position(1).Radius, 1e-12)

	// Below run: indices 3-5, bounded by the lower-boundary samples.
	a.Equal(3, segments[1].Len())
	a.InDelta(3480, segments[1].Position(0).Radius, 1e-12)
	a.InDelta(3300, segments[1].Position(1).Radius, 1e-12)
	a.InDelta(3480, segments[1].Position(2).Radius, 1e-12)
	a.InDelta(0, segments[1].DistanceDeg(0), 1e-12)

	// Above run: indices 7-8.
	a.Equal(2, segments[2].Len())
}

func TestTurningPointPlateau(t *testing.T) {
	a := assert.New(t)

	// Every index of a flat minimum qualifies on its own; the plateau is
	// not collapsed.
	p := pathWithRadii(t, []float64{6371, 5000, 5000, 5000, 6371})
	a.Len(p.TurningPoints(), 3)

	q := pathWithRadii(t, []float64{3480, 5000, 5000, 3480})
	a.Len(q.CeilBouncingPoints(), 2)
	a.Empty(q.TurningPoints())
}

func TestTurningAzimuth(t *testing.T) {
	a := assert.New(t)

	p := pathWithRadii(t, []float64{6371, 5000, 3500, 5000, 6371})

	az, err := p.TurningAzimuthDeg(0)
	a.NoError(err)
	turning := p.TurningPoints()[0]
	a.InDelta(turning.AzimuthTo(p.Receiver().HorizontalPosition), az, 1e-12)

	_, err = p.TurningAzimuthDeg(1)
	a.Error(err)
	_, err = p.TurningAzimuthDeg(-1)
	a.Error(err)
}

type stubSampler struct {
	samples []PathSample
	err     error
}

func (s stubSampler) SamplePath(source, receiver FullPosition, phase string) ([]PathSample, error) {
	return s.samples, s.err
}

func TestSampleRaypath(t *testing.T) {
	a := assert.New(t)

	source := FullPosition{Radius: 6371}
	receiver := FullPosition{HorizontalPosition: HorizontalPosition{Longitude: 10}, Radius: 6371}

	sampler := stubSampler{samples: []PathSample{
		{DistanceDeg: 2, Position: source},
		{DistanceDeg: 7, Position: FullPosition{HorizontalPosition: HorizontalPosition{Longitude: 5}, Radius: 4000}},
		{DistanceDeg: 12, Position: receiver},
	}}

	p, err := SampleRaypath(sampler, source, receiver, "ScS")
	a.NoError(err)
	a.Equal("ScS", p.Phase())
	a.InDelta(10, p.LengthDeg(), 1e-12)

	_, err = SampleRaypath(stubSampler{}, source, receiver, "ScS")
	a.Error(err)
}
