package surface

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/mapscreen/internal/core/domain"
)

// GeoJSON converts a rendering into a feature collection. Overlays come
// first in drawing order, then annotations as points. The collection's bbox
// is the visible region.
func GeoJSON(r Rendering) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	b := r.Region.Bounds()
	fc.BBox = geojson.NewBBox(orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	})
	fc.ExtraMembers = geojson.Properties{
		"version":             r.Version,
		"shows_user_location": r.ShowsUserLocation,
		"network_activity":    r.NetworkActivity,
		"center":              orb.Point{r.Region.Center.Lon, r.Region.Center.Lat},
	}

	for _, ro := range r.Overlays {
		geom := overlayGeometry(ro.Overlay)
		if geom == nil {
			continue
		}
		f := geojson.NewFeature(geom)
		f.ID = ro.Overlay.ID
		f.Properties["kind"] = string(ro.Overlay.Kind)
		if !ro.Style.IsDefault() {
			f.Properties["stroke"] = string(ro.Style.StrokeColor)
			f.Properties["stroke-width"] = ro.Style.LineWidth
		}
		fc.Append(f)
	}

	for _, ra := range r.Annotations {
		a := ra.Annotation
		f := geojson.NewFeature(point(a.Coordinate))
		f.ID = a.ID
		f.Properties["kind"] = "annotation"
		if a.Title != "" {
			f.Properties["title"] = a.Title
		}
		if a.Subtitle != "" {
			f.Properties["subtitle"] = a.Subtitle
		}
		if v := ra.View; v != nil {
			f.Properties["marker-symbol"] = v.Image
			f.Properties["reuse_identifier"] = v.ReuseIdentifier
			f.Properties["callout"] = v.CanShowCallout
		} else {
			f.Properties["marker-symbol"] = "default"
		}
		fc.Append(f)
	}

	return fc
}

func overlayGeometry(o domain.Overlay) orb.Geometry {
	switch o.Kind {
	case domain.OverlayPolygon:
		if len(o.Coordinates) < 3 {
			return nil
		}
		ring := make(orb.Ring, 0, len(o.Coordinates)+1)
		for _, p := range o.Coordinates {
			ring = append(ring, point(p))
		}
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		return orb.Polygon{ring}
	case domain.OverlayPolyline:
		if len(o.Coordinates) < 2 {
			return nil
		}
		ls := make(orb.LineString, 0, len(o.Coordinates))
		for _, p := range o.Coordinates {
			ls = append(ls, point(p))
		}
		return ls
	case domain.OverlayCircle:
		if len(o.Coordinates) == 0 {
			return nil
		}
		return point(o.Coordinates[0])
	}
	return nil
}

func point(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}
