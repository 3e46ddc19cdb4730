package usecases

import (
	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/pkg/geospatial"
)

// AssemblyResult is the outcome of converting a raw payload into regions.
type AssemblyResult struct {
	Regions     []domain.Region        `json:"regions"`
	Excluded    []domain.AssemblyError `json:"excluded"`
	DroppedWays int                    `json:"dropped_ways"`
}

// Assemble converts the boundary relations in payload into regions with closed rings.
//
// Relations are taken in payload order; only those matching filter qualify. A way listed more
// than once counts once. Member ways that are missing, too short, or reference unknown nodes
// are dropped, as are ways that cannot be stitched into a closed loop. A relation with no
// closed outer ring is excluded.
func Assemble(payload *domain.RawPayload, filter domain.BoundaryFilter) AssemblyResult {
	var res AssemblyResult
	if payload == nil {
		return res
	}

	nodes := make(map[int64]domain.GeoPoint)
	ways := make(map[int64][]int64)
	for _, e := range payload.Elements {
		switch e.Type {
		case domain.ElementNode:
			nodes[e.ID] = domain.GeoPoint{Lat: e.Lat, Lon: e.Lon}
		case domain.ElementWay:
			ways[e.ID] = e.Nodes
		}
	}

	seen := make(map[int64]bool)
	for _, rel := range payload.Elements {
		if !filter.Matches(rel) || seen[rel.ID] {
			continue
		}
		seen[rel.ID] = true

		name := rel.Tags["name"]
		if name == "" {
			name = domain.DefaultRegionName
		}

		var outer, inner []geospatial.Segment
		members := 0
		listed := make(map[int64]bool, len(rel.Members))
		for _, m := range rel.Members {
			if m.Type != domain.ElementWay || listed[m.Ref] {
				continue
			}
			listed[m.Ref] = true
			members++
			wayNodes, ok := ways[m.Ref]
			if !ok || !allKnown(wayNodes, nodes) {
				res.DroppedWays++
				continue
			}
			s := geospatial.Segment{WayID: m.Ref, Nodes: wayNodes}
			if m.Role == domain.RoleInner {
				inner = append(inner, s)
			} else {
				outer = append(outer, s)
			}
		}

		if members == 0 {
			res.Excluded = append(res.Excluded, domain.AssemblyError{RelationID: rel.ID, Name: name, Reason: "no way members"})
			continue
		}

		outerRes := geospatial.StitchRings(outer)
		innerRes := geospatial.StitchRings(inner)
		res.DroppedWays += len(outerRes.Dropped) + len(innerRes.Dropped)

		if len(outerRes.Rings) == 0 {
			res.Excluded = append(res.Excluded, domain.AssemblyError{RelationID: rel.ID, Name: name, Reason: "no closed outer ring"})
			continue
		}

		region := domain.Region{ID: rel.ID, Name: name, Outer: len(outerRes.Rings)}
		for _, ids := range outerRes.Rings {
			region.Rings = append(region.Rings, toRing(ids, nodes))
		}
		for _, ids := range innerRes.Rings {
			region.Rings = append(region.Rings, toRing(ids, nodes))
		}
		res.Regions = append(res.Regions, region)
	}

	return res
}

func allKnown(ids []int64, nodes map[int64]domain.GeoPoint) bool {
	for _, id := range ids {
		if _, ok := nodes[id]; !ok {
			return false
		}
	}
	return true
}

func toRing(ids []int64, nodes map[int64]domain.GeoPoint) domain.Ring {
	ring := make(domain.Ring, len(ids))
	for i, id := range ids {
		ring[i] = nodes[id]
	}
	return ring
}
