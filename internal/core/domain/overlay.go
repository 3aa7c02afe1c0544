package domain

// OverlayKind identifies the shape of an overlay.
type OverlayKind string

const (
	OverlayPolygon  OverlayKind = "polygon"
	OverlayPolyline OverlayKind = "polyline"
	OverlayCircle   OverlayKind = "circle"
)

// Overlay is a shape drawn on top of the base map.
type Overlay struct {
	ID          string      `json:"id"`
	Kind        OverlayKind `json:"kind"`
	Coordinates []GeoPoint  `json:"coordinates"`
}

// Color is a CSS hex color.
type Color string

const (
	ColorBlue Color = "#0000ff"
	ColorRed  Color = "#ff0000"
)

// OverlayStyle describes how an overlay is stroked. The zero value is the
// surface's default style.
type OverlayStyle struct {
	StrokeColor Color   `json:"stroke_color,omitempty"`
	LineWidth   float64 `json:"line_width,omitempty"`
}

// IsDefault reports whether the style carries no customization.
func (s OverlayStyle) IsDefault() bool {
	return s == OverlayStyle{}
}
