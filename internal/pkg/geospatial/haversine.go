package geospatial

import (
	"math"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

const (
	earthRadiusKm = 6371.0
	metersPerDeg  = 111320.0
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Offset moves a point east and north by the given distances in meters.
// Uses an equirectangular approximation, fine for survey-sized fields.
func Offset(origin domain.GeoPoint, east, north float64) domain.GeoPoint {
	return domain.GeoPoint{
		Lat: origin.Lat + north/metersPerDeg,
		Lon: origin.Lon + east/(metersPerDeg*math.Cos(toRad(origin.Lat))),
	}
}

// Project anchors local waypoints (X east, Y north, meters) at origin.
func Project(origin domain.GeoPoint, route []domain.Waypoint) []domain.GeoPoint {
	out := make([]domain.GeoPoint, len(route))
	for i, w := range route {
		out[i] = Offset(origin, w.X, w.Y)
	}
	return out
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
