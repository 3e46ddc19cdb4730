package domain

import (
	"strconv"
	"time"
)

// DefaultRegionName is used when a boundary relation carries no name tag.
const DefaultRegionName = "Unknown LGA"

// Element types as reported by the boundary-data provider.
const (
	ElementNode     = "node"
	ElementWay      = "way"
	ElementRelation = "relation"
)

// Member roles used by multipolygon boundary relations.
const (
	RoleOuter = "outer"
	RoleInner = "inner"
)

// RawElement is a node, way or relation as delivered by the boundary-data provider.
// Only the fields relevant to the element's type are populated.
type RawElement struct {
	Type    string            `json:"type"`
	ID      int64             `json:"id"`
	Lat     float64           `json:"lat,omitempty"`
	Lon     float64           `json:"lon,omitempty"`
	Nodes   []int64           `json:"nodes,omitempty"`   // ways
	Members []Member          `json:"members,omitempty"` // relations
	Tags    map[string]string `json:"tags,omitempty"`
}

// Member references another element from a relation.
type Member struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref"`
	Role string `json:"role"`
}

// RawPayload is the flat element set returned by one provider call.
type RawPayload struct {
	Elements []RawElement `json:"elements"`
}

// BoundaryFilter selects the administrative boundaries to fetch.
type BoundaryFilter struct {
	Country    string `json:"country"`     // ISO 3166-1 alpha-2, e.g. "AU"
	AdminLevel int    `json:"admin_level"` // OSM admin_level, 6 for Australian LGAs
}

// Matches reports whether a relation is an administrative boundary at the filter's level.
func (f BoundaryFilter) Matches(e RawElement) bool {
	if e.Type != ElementRelation {
		return false
	}
	if e.Tags["boundary"] != "administrative" {
		return false
	}
	return e.Tags["admin_level"] == strconv.Itoa(f.AdminLevel)
}

// Region is an assembled administrative area.
type Region struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Rings []Ring `json:"rings"`
	// Outer is the number of leading rings in Rings that are outer boundaries.
	Outer int `json:"outer"`
}

// OuterRings returns the outer boundary rings.
func (r Region) OuterRings() []Ring { return r.Rings[:r.Outer] }

// InnerRings returns the hole rings.
func (r Region) InnerRings() []Ring { return r.Rings[r.Outer:] }

// ProgressStats is derived from the registry and the visited set. Never persisted.
type ProgressStats struct {
	Total      int     `json:"total"`
	Visited    int     `json:"visited"`
	Percentage float64 `json:"percentage"` // rounded to one decimal place
}

// FillState is the render-independent style of a region.
type FillState int

const (
	FillUnvisited FillState = iota
	FillVisited
)

// FillFor maps a visited flag to its fill state.
func FillFor(visited bool) FillState {
	if visited {
		return FillVisited
	}
	return FillUnvisited
}

func (s FillState) String() string {
	if s == FillVisited {
		return "visited"
	}
	return "unvisited"
}

// VisitChange is emitted to observers after every toggle.
type VisitChange struct {
	EventID   string        `json:"event_id"`
	RegionID  int64         `json:"region_id"`
	Name      string        `json:"name,omitempty"`
	Visited   bool          `json:"visited"`
	Persisted bool          `json:"persisted"`
	Stats     ProgressStats `json:"stats"`
	At        time.Time     `json:"at"`
	// Source identifies the tracker instance that made the change.
	Source string `json:"source,omitempty"`
}

// RegistryChange is emitted to observers after a registry load commits.
type RegistryChange struct {
	EventID    string        `json:"event_id"`
	Generation uint64        `json:"generation"`
	Regions    int           `json:"regions"`
	Excluded   int           `json:"excluded"`
	Stats      ProgressStats `json:"stats"`
	At         time.Time     `json:"at"`
}

// RegistryStatus describes the current registry holder state.
type RegistryStatus struct {
	Loaded     bool       `json:"loaded"`
	Loading    bool       `json:"loading"`
	Regions    int        `json:"regions"`
	Excluded   int        `json:"excluded"`
	Generation uint64     `json:"generation"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}
