package http

import (
	"math"
	"strings"

	geojson "github.com/paulmach/go.geojson"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
	"github.com/samirrijal/lgatracker/internal/pkg/geospatial"
)

// Map defaults for the initial view over Australia.
var (
	MapCenter = domain.GeoPoint{Lat: -25.2744, Lon: 133.7751}
	MapZoom   = 4
)

// RegionStyle is the render style of one region on the map surface.
type RegionStyle struct {
	FillColor   string  `json:"fillColor"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	Color       string  `json:"color"`
	FillOpacity float64 `json:"fillOpacity"`
}

// StyleFor maps a fill state to colours.
func StyleFor(s domain.FillState) RegionStyle {
	fill := "#cbd5e1"
	if s == domain.FillVisited {
		fill = "#22c55e"
	}
	return RegionStyle{FillColor: fill, Weight: 1, Opacity: 1, Color: "white", FillOpacity: 0.7}
}

// RegionSummary is the list representation of a region.
type RegionSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Visited bool   `json:"visited"`
}

// RegionDetail is returned for hover and lookup.
type RegionDetail struct {
	RegionSummary
	Fill        string            `json:"fill"`
	Style       RegionStyle       `json:"style"`
	Tooltip     string            `json:"tooltip"`
	Rings       int               `json:"rings"`
	OuterRings  int               `json:"outer_rings"`
	Bounds      domain.Bounds     `json:"bounds"`
	PerimeterKm float64           `json:"perimeter_km"`
	Geometry    *geojson.Geometry `json:"geometry,omitempty"`
}

// ProgressView is the UI display payload.
type ProgressView struct {
	domain.ProgressStats
	Loaded    bool      `json:"loaded"`
	Display   string    `json:"display"`
	Indicator Indicator `json:"indicator"`
}

// Indicator is a proportional progress bar.
type Indicator struct {
	Fraction float64 `json:"fraction"`
	Bar      string  `json:"bar"`
}

// MapView is everything the map surface needs for a first paint.
type MapView struct {
	Center   domain.GeoPoint            `json:"center"`
	Zoom     int                        `json:"zoom"`
	Progress ProgressView               `json:"progress"`
	Legend   map[string]RegionStyle     `json:"legend"`
	Regions  *geojson.FeatureCollection `json:"regions"`
}

const indicatorWidth = 20

func progressView(t *usecases.Tracker) ProgressView {
	stats := t.Progress()
	_, loaded := t.Registry().Current()
	frac := math.Min(stats.Percentage/100, 1)
	filled := int(math.Round(frac * indicatorWidth))
	return ProgressView{
		ProgressStats: stats,
		Loaded:        loaded,
		Display:       usecases.FormatProgress(stats),
		Indicator: Indicator{
			Fraction: frac,
			Bar:      strings.Repeat("█", filled) + strings.Repeat("░", indicatorWidth-filled),
		},
	}
}

func summaryOf(t *usecases.Tracker, r domain.Region) RegionSummary {
	return RegionSummary{ID: r.ID, Name: r.Name, Visited: t.Visits().IsVisited(r.ID)}
}

func detailOf(t *usecases.Tracker, r domain.Region, withGeometry bool) RegionDetail {
	fill := t.StyleFor(r.ID)
	d := RegionDetail{
		RegionSummary: summaryOf(t, r),
		Fill:          fill.String(),
		Style:         StyleFor(fill),
		Tooltip:       r.Name,
		Rings:         len(r.Rings),
		OuterRings:    r.Outer,
		Bounds:        domain.BoundsOf(r.Rings),
		PerimeterKm:   math.Round(geospatial.PerimeterMeters(r.OuterRings())/10) / 100,
	}
	if withGeometry {
		d.Geometry = geometryOf(r)
	}
	return d
}

// geometryOf converts rings to a GeoJSON Polygon or MultiPolygon. Positions are [lon, lat].
func geometryOf(r domain.Region) *geojson.Geometry {
	polys := geospatial.GroupPolygons(r.OuterRings(), r.InnerRings())
	coords := make([][][][]float64, len(polys))
	for i, poly := range polys {
		coords[i] = make([][][]float64, len(poly))
		for j, ring := range poly {
			pts := make([][]float64, len(ring))
			for k, p := range ring {
				pts[k] = []float64{p.Lon, p.Lat}
			}
			coords[i][j] = pts
		}
	}
	if len(coords) == 1 {
		return geojson.NewPolygonGeometry(coords[0])
	}
	return geojson.NewMultiPolygonGeometry(coords...)
}

// featureCollection renders every region with its current style.
func featureCollection(t *usecases.Tracker, regions []domain.Region) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		fill := t.StyleFor(r.ID)
		f := geojson.NewFeature(geometryOf(r))
		f.ID = r.ID
		f.SetProperty("name", r.Name)
		f.SetProperty("visited", fill == domain.FillVisited)
		f.SetProperty("fill", fill.String())
		f.SetProperty("style", StyleFor(fill))
		b := domain.BoundsOf(r.Rings)
		f.BoundingBox = []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
		fc.AddFeature(f)
	}
	return fc
}
