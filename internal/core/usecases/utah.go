package usecases

import "github.com/samirrijal/mapscreen/internal/core/domain"

// Reuse identifiers and marker images of the built-in point sets.
const (
	DevMountainTag   = "DevMountain"
	DevMountainIcon  = "DMAnnotation"
	NationalParkTag  = "NationalPark"
	NationalParkIcon = "NPAnnotation"
)

// UtahRegion is a 6x6 degree view centred on the state.
func UtahRegion() domain.Region {
	return domain.Region{
		Center: domain.GeoPoint{Lat: 39.572317, Lon: -111.646970},
		Span:   domain.Span{LatitudeDelta: 6, LongitudeDelta: 6},
	}
}

// UtahBoundary returns the state outline, clockwise from the
// Utah/Idaho/Nevada corner:
//
//	0 -------- 1            0 - UT, ID, NV
//	|          |            1 - UT, ID, WY
//	|          2 ----- 3    2 - UT, WY
//	|                  |    3 - UT, WY, CO
//	|                  |    4 - UT, CO, AZ, NM
//	5 ---------------- 4    5 - UT, NV, AZ
func UtahBoundary() []domain.GeoPoint {
	return []domain.GeoPoint{
		{Lat: 41.99386, Lon: -114.04147},
		{Lat: 42.00162, Lon: -111.04675},
		{Lat: 40.99808, Lon: -111.04696},
		{Lat: 41.00002, Lon: -109.05160},
		{Lat: 36.99909, Lon: -109.04524},
		{Lat: 37.00103, Lon: -114.05041},
	}
}

// DevMountainPoints is the campus set. Salt Lake City comes first and is the
// route destination.
func DevMountainPoints() domain.PointSet {
	return domain.PointSet{
		Tag:   DevMountainTag,
		Icon:  DevMountainIcon,
		Title: "DM",
		Points: []domain.PointOfInterest{
			{Name: "Salt Lake City", Coordinate: domain.GeoPoint{Lat: 40.761870, Lon: -111.890621}},
			{Name: "Provo", Coordinate: domain.GeoPoint{Lat: 40.226319, Lon: -111.660941}},
		},
	}
}

// NationalParkPoints is the richer set with callouts enabled.
func NationalParkPoints() domain.PointSet {
	return domain.PointSet{
		Tag:          NationalParkTag,
		Icon:         NationalParkIcon,
		ShowsCallout: true,
		Points: []domain.PointOfInterest{
			{Name: "Arches", Coordinate: domain.GeoPoint{Lat: 38.733081, Lon: -109.592514}},
			{Name: "Bryce Canyon", Coordinate: domain.GeoPoint{Lat: 37.593038, Lon: -112.187089}},
			{Name: "Canyonlands", Coordinate: domain.GeoPoint{Lat: 38.326880, Lon: -109.878265}},
			{Name: "Capitol Reef", Coordinate: domain.GeoPoint{Lat: 38.089600, Lon: -111.149910}},
			{Name: "Zion", Coordinate: domain.GeoPoint{Lat: 37.298202, Lon: -113.026300}},
		},
	}
}

// PointSetByName resolves a configured point set name ("devmountain" or "parks").
func PointSetByName(name string) (domain.PointSet, bool) {
	switch name {
	case "devmountain", "":
		return DevMountainPoints(), true
	case "parks":
		return NationalParkPoints(), true
	}
	return domain.PointSet{}, false
}

// UtahScreen assembles the Utah map screen around a point set.
func UtahScreen(points domain.PointSet) Screen {
	return Screen{
		Region:   UtahRegion(),
		Boundary: UtahBoundary(),
		Points:   points,
	}
}
