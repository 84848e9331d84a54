package geospatial

import (
	"math"
	"strconv"
)

const earthRadiusKm = 6371.0

// HaversineKm calculates the great-circle distance in kilometers between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// CalculateDistance returns the haversine distance in km formatted with one decimal,
// e.g. "111.2". Identical points yield "0.0".
func CalculateDistance(lat1, lon1, lat2, lon2 float64) string {
	return strconv.FormatFloat(HaversineKm(lat1, lon1, lat2, lon2), 'f', 1, 64)
}

// ParseDistance converts a CalculateDistance result back to a number.
// Unparseable input sorts last.
func ParseDistance(s string) float64 {
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.Inf(1)
	}
	return d
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
