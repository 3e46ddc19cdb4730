package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Ring is a closed polygon loop: the first and last points coincide.
type Ring []GeoPoint

// Closed reports whether the ring has at least four positions and returns to its start.
func (r Ring) Closed() bool {
	return len(r) >= 4 && r[0] == r[len(r)-1]
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundsOf returns the bounding box of all points in rings.
// The zero Bounds is returned when there are no points.
func BoundsOf(rings []Ring) Bounds {
	var b Bounds
	first := true
	for _, ring := range rings {
		for _, p := range ring {
			if first {
				b = Bounds{MinLat: p.Lat, MinLon: p.Lon, MaxLat: p.Lat, MaxLon: p.Lon}
				first = false
				continue
			}
			b.MinLat = min(b.MinLat, p.Lat)
			b.MinLon = min(b.MinLon, p.Lon)
			b.MaxLat = max(b.MaxLat, p.Lat)
			b.MaxLon = max(b.MaxLon, p.Lon)
		}
	}
	return b
}
