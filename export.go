package tomo

import (
	geom "github.com/flywave/go-geom"
	"github.com/flywave/go-geom/general"
)

// SegmentFeatureCollection converts clipped raypath segments into a GeoJSON
// feature collection for the map-rendering collaborator: one LineString per
// segment with (lon, lat, radius) coordinates and the phase label attached.
func SegmentFeatureCollection(segments []*Raypath) *geom.FeatureCollection {
	fc := &geom.FeatureCollection{}
	for _, s := range segments {
		coords := make([][]float64, s.Len())
		for i := 0; i < s.Len(); i++ {
			p := s.Position(i)
			coords[i] = []float64{p.Longitude, p.Latitude, p.Radius}
		}
		fc.Features = append(fc.Features, &geom.Feature{
			Geometry: general.NewLineString(coords),
			Properties: map[string]interface{}{
				"phase":     s.Phase(),
				"lengthDeg": s.LengthDeg(),
			},
		})
	}
	return fc
}

// PointFeatureCollection converts marker positions (turning or bouncing
// points) into a GeoJSON feature collection, one Point per position with
// the marker kind attached.
func PointFeatureCollection(points []FullPosition, kind string) *geom.FeatureCollection {
	fc := &geom.FeatureCollection{}
	for _, p := range points {
		fc.Features = append(fc.Features, &geom.Feature{
			Geometry: general.NewPoint([]float64{p.Longitude, p.Latitude, p.Radius}),
			Properties: map[string]interface{}{
				"kind":   kind,
				"radius": p.Radius,
			},
		})
	}
	return fc
}

// SectionFeatureCollection converts resampled section records into a
// GeoJSON feature collection: one Point per (arc-distance, radius) node
// carrying the 5 scalar fields of the plotting contract.
func SectionFeatureCollection(data *SectionData) *geom.FeatureCollection {
	fc := &geom.FeatureCollection{}
	for _, r := range data.Records() {
		fc.Features = append(fc.Features, &geom.Feature{
			Geometry: general.NewPoint([]float64{r.Longitude, r.Latitude}),
			Properties: map[string]interface{}{
				"distanceDeg": r.DistanceDeg,
				"latitude":    r.Latitude,
				"longitude":   r.Longitude,
				"radius":      r.Radius,
				"value":       r.Value,
			},
		})
	}
	return fc
}
