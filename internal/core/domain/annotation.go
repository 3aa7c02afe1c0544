package domain

// Annotation is a labelled point shown on the map.
type Annotation struct {
	ID         string   `json:"id"`
	Coordinate GeoPoint `json:"coordinate"`
	Title      string   `json:"title,omitempty"`
	Subtitle   string   `json:"subtitle,omitempty"`
	// Tag is the reuse identifier of the point set the annotation came from.
	Tag string `json:"tag,omitempty"`
}

// PointOfInterest is a named coordinate such as a campus or a national park.
type PointOfInterest struct {
	Name       string   `json:"name"`
	Coordinate GeoPoint `json:"coordinate"`
}

// PointSet is a static list of points of interest and how the screen
// labels and draws them.
type PointSet struct {
	Tag   string `json:"tag"`
	Icon  string `json:"icon"`
	Title string `json:"title,omitempty"` // fixed title; empty means use each point's name
	// ShowsCallout enables the detail callout on the marker view.
	ShowsCallout bool              `json:"shows_callout"`
	Points       []PointOfInterest `json:"points"`
}

// TitleFor returns the annotation title used for p.
func (s PointSet) TitleFor(p PointOfInterest) string {
	if s.Title != "" {
		return s.Title
	}
	return p.Name
}

// AnnotationView is the marker drawn for an annotation. Views are reused
// across annotations sharing a reuse identifier.
type AnnotationView struct {
	ReuseIdentifier  string `json:"reuse_identifier"`
	AnnotationID     string `json:"annotation_id"`
	Image            string `json:"image,omitempty"`
	CanShowCallout   bool   `json:"can_show_callout"`
	DetailDisclosure bool   `json:"detail_disclosure"`
}
