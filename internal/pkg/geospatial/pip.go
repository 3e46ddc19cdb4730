package geospatial

import "github.com/samirrijal/lgatracker/internal/core/domain"

// PointInRing reports whether pt lies inside ring using the even-odd rule.
func PointInRing(pt domain.GeoPoint, ring domain.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := pt.Lon, pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// GroupPolygons pairs every inner ring with the first outer ring containing it.
// Each returned polygon starts with its outer ring, followed by its holes.
// Inner rings outside every outer ring are left out.
func GroupPolygons(outers, inners []domain.Ring) [][]domain.Ring {
	polys := make([][]domain.Ring, len(outers))
	for i, o := range outers {
		polys[i] = []domain.Ring{o}
	}
	for _, in := range inners {
		if len(in) == 0 {
			continue
		}
		for i, o := range outers {
			if PointInRing(in[0], o) {
				polys[i] = append(polys[i], in)
				break
			}
		}
	}
	return polys
}
