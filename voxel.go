package tomo

import (
	"fmt"
	"sort"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"gonum.org/v1/gonum/stat"
)

// voxelRow is one west-east line of a layer: the declared positions sharing
// a latitude, sorted by longitude.
type voxelRow struct {
	lons []float64
	keys []FullPosition
}

// voxelLayer groups the declared positions sharing one radius.
type voxelLayer struct {
	radius float64
	lats   []float64
	rows   []*voxelRow
}

// VoxelField is the discrete position set a sparse scalar field is defined
// on: positions drawn from a finite set of distinct radii, grouped into
// radius layers and west-east rows. Layers may have different horizontal
// coverage. The field itself carries no values; values are supplied per
// computation as a map keyed by declared positions.
type VoxelField struct {
	set           map[FullPosition]struct{}
	layers        []*voxelLayer
	lon360        bool
	meanRadius    float64
	latSpacing    float64
	radiusSpacing float64
	bounds        vec2d.Rect
}

// NewVoxelField declares the discrete position set. When the set crosses
// the antimeridian, all longitudes are handled in [0, 360) instead of
// [-180, 180) so that west-east rows stay contiguous.
func NewVoxelField(positions []FullPosition) (*VoxelField, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("voxel field needs at least one position")
	}

	f := &VoxelField{set: make(map[FullPosition]struct{}, len(positions))}
	for _, p := range positions {
		f.set[p] = struct{}{}
	}

	lons180 := make([]float64, 0, len(f.set))
	lons360 := make([]float64, 0, len(f.set))
	radii := make([]float64, 0, len(f.set))
	lats := make([]float64, 0, len(f.set))
	for p := range f.set {
		lons180 = append(lons180, wrap180(p.Longitude))
		lons360 = append(lons360, wrap360(p.Longitude))
		radii = append(radii, p.Radius)
		lats = append(lats, p.Latitude)
	}
	f.lon360 = span(lons360) < span(lons180)

	distinctRadii := distinct(radii)
	distinctLats := distinct(lats)
	f.meanRadius = stat.Mean(distinctRadii, nil)
	f.latSpacing = meanSpacing(distinctLats)
	f.radiusSpacing = meanSpacing(distinctRadii)

	f.layers = make([]*voxelLayer, len(distinctRadii))
	for i, r := range distinctRadii {
		f.layers[i] = &voxelLayer{radius: r}
	}
	for p := range f.set {
		layer := f.layers[coordinateIndex(distinctRadii, p.Radius)]
		lat := p.Latitude
		j := sort.SearchFloat64s(layer.lats, lat-Epsilon)
		if j == len(layer.lats) || !sameCoordinate(layer.lats[j], lat) {
			layer.lats = append(layer.lats, 0)
			copy(layer.lats[j+1:], layer.lats[j:])
			layer.lats[j] = lat
			layer.rows = append(layer.rows, nil)
			copy(layer.rows[j+1:], layer.rows[j:])
			layer.rows[j] = &voxelRow{}
		}
		row := layer.rows[j]
		lon := f.lonOf(p.HorizontalPosition)
		k := sort.SearchFloat64s(row.lons, lon)
		row.lons = append(row.lons, 0)
		copy(row.lons[k+1:], row.lons[k:])
		row.lons[k] = lon
		row.keys = append(row.keys, FullPosition{})
		copy(row.keys[k+1:], row.keys[k:])
		row.keys[k] = p
	}

	lonAll := lons180
	if f.lon360 {
		lonAll = lons360
	}
	f.bounds = vec2d.Rect{
		Min: vec2d.T{minOf(lonAll), minOf(lats)},
		Max: vec2d.T{maxOf(lonAll), maxOf(lats)},
	}
	return f, nil
}

// lonOf maps a longitude into the field's working range.
func (f *VoxelField) lonOf(p HorizontalPosition) float64 {
	if f.lon360 {
		return p.LongitudeIn360()
	}
	return wrap180(p.Longitude)
}

// Size returns the number of declared positions.
func (f *VoxelField) Size() int { return len(f.set) }

// Radii returns the sorted distinct radii of the field's layers.
func (f *VoxelField) Radii() []float64 {
	out := make([]float64, len(f.layers))
	for i, l := range f.layers {
		out[i] = l.radius
	}
	return out
}

// MeanRadius returns the mean of the distinct layer radii, used to convert
// horizontal margins between kilometers and degrees.
func (f *VoxelField) MeanRadius() float64 { return f.meanRadius }

// LatSpacingDeg returns the typical latitude spacing of the field: the mean
// gap of its distinct latitudes, 0 when fewer than two exist.
func (f *VoxelField) LatSpacingDeg() float64 { return f.latSpacing }

// RadiusSpacingKm returns the typical radial spacing of the field's layers,
// 0 when the field has a single layer.
func (f *VoxelField) RadiusSpacingKm() float64 { return f.radiusSpacing }

// CrossesAntimeridian reports whether the field works in [0, 360)
// longitudes.
func (f *VoxelField) CrossesAntimeridian() bool { return f.lon360 }

// Bounds returns the horizontal extent of the field as a (lon, lat)
// rectangle in the field's working longitude range.
func (f *VoxelField) Bounds() vec2d.Rect { return f.bounds }

// Contains reports whether p is a declared position of the field.
func (f *VoxelField) Contains(p FullPosition) bool {
	_, ok := f.set[p]
	return ok
}

// CheckMembers fails when any key of the supplied value map is not a
// declared position. Values attached to foreign positions are a caller
// contract violation, not a recoverable condition.
func (f *VoxelField) CheckMembers(values map[FullPosition]float64) error {
	for p := range values {
		if !f.Contains(p) {
			return fmt.Errorf("position (%v, %v, %v) is not part of the declared position set",
				p.Latitude, p.Longitude, p.Radius)
		}
	}
	return nil
}

// distinct returns the sorted values with duplicates within Epsilon
// collapsed onto the first representative.
func distinct(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	out := sorted[:0]
	for _, v := range sorted {
		if len(out) == 0 || !sameCoordinate(out[len(out)-1], v) {
			out = append(out, v)
		}
	}
	return out
}

// coordinateIndex locates v in a sorted distinct array within Epsilon.
func coordinateIndex(sorted []float64, v float64) int {
	i := sort.SearchFloat64s(sorted, v-Epsilon)
	if i < len(sorted) && sameCoordinate(sorted[i], v) {
		return i
	}
	return -1
}

// meanSpacing returns the mean gap of a sorted distinct array, 0 when the
// array has fewer than two entries.
func meanSpacing(sorted []float64) float64 {
	if len(sorted) < 2 {
		return 0
	}
	gaps := make([]float64, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps[i-1] = sorted[i] - sorted[i-1]
	}
	return stat.Mean(gaps, nil)
}

func span(values []float64) float64 {
	return maxOf(values) - minOf(values)
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
