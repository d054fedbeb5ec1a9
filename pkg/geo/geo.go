package geo

import (
	"strconv"
	"strings"

	"github.com/pymaxion/geographiclib-go/geodesic"
	"github.com/tidwall/gjson"
)

// Point is a WGS-84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// ParseLocationPoint extracts coordinates from the catalog's location_point
// field. The catalog emits single-quote-delimited JSON-ish text like
//
//	{'type': 'Point', 'coordinates': [-122.33, 47.61]}
//
// with coordinates ordered [longitude, latitude]. Returns false for anything
// that doesn't parse; malformed input is expected and never an error.
func ParseLocationPoint(raw string) (Point, bool) {
	if strings.TrimSpace(raw) == "" {
		return Point{}, false
	}
	normalized := strings.ReplaceAll(raw, "'", `"`)
	if !gjson.Valid(normalized) {
		return Point{}, false
	}
	coords := gjson.Get(normalized, "coordinates")
	if !coords.IsArray() {
		return Point{}, false
	}
	arr := coords.Array()
	if len(arr) != 2 {
		return Point{}, false
	}
	if arr[0].Type != gjson.Number || arr[1].Type != gjson.Number {
		return Point{}, false
	}
	// Source order is [lon, lat].
	return Point{Lat: arr[1].Float(), Lon: arr[0].Float()}, true
}

// FormatPair serializes a point as "lat,lon" for the cache file.
func FormatPair(p Point) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// ParsePair parses the "lat,lon" text form written by FormatPair. Also
// accepts the loc field returned by the IP geolocation service, which uses
// the same shape.
func ParsePair(s string) (Point, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

// DistanceKm returns the geodesic distance between two points on the WGS-84
// ellipsoid, in kilometers. Ellipsoidal rather than great-circle distance:
// recommendations rank real-world travel relevance.
func DistanceKm(a, b Point) float64 {
	r := geodesic.WGS84.Inverse(a.Lat, a.Lon, b.Lat, b.Lon)
	return r.S12 / 1000.0
}
