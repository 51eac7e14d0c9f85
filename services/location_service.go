package services

import "math"

// DefaultSearchRadiusKm is used by the nearby endpoints when the client
// does not pass a radius.
const DefaultSearchRadiusKm = 3.0

// CalculateDistance returns the great-circle distance between two points in
// kilometers (haversine formula).
func CalculateDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371 // Earth's radius in kilometers

	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// WithinRadius reports whether the point is within radiusKm of the origin.
func WithinRadius(originLat, originLng, lat, lng, radiusKm float64) bool {
	return CalculateDistance(originLat, originLng, lat, lng) <= radiusKm
}
