package geospatial

import "github.com/mmcloughlin/geohash"

// CellPrecision gives cells of roughly 38 m x 19 m.
const CellPrecision = 8

// Cell encodes a coordinate into its geohash cell.
func Cell(lat, lon float64) string {
	return geohash.EncodeWithPrecision(lat, lon, CellPrecision)
}
