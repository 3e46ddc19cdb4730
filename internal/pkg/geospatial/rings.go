package geospatial

// Segment is the ordered node-id path of one boundary way.
type Segment struct {
	WayID int64
	Nodes []int64
}

// StitchResult holds the closed rings found among a set of segments.
type StitchResult struct {
	// Rings are closed node-id sequences (first == last), in discovery order.
	Rings [][]int64
	// Dropped lists the way ids that could not be joined into any closed ring.
	Dropped []int64
}

// minRingNodes is the smallest valid ring: three distinct positions plus the closing one.
const minRingNodes = 4

type step struct {
	seg      int
	reversed bool
}

type stitcher struct {
	segs   []Segment
	ends   map[int64][]int
	used   []bool
	budget int
}

// StitchRings joins segments that share endpoint node ids into closed rings.
//
// Segments are consumed in input order. Each unconsumed segment starts a new ring; the ring is
// extended from its open end with the first unconsumed segment (in input order) touching that
// end, in either direction, backtracking on dead ends. A start segment that cannot be closed
// is dropped and its neighbours stay available to later rings. The result is deterministic for
// a given input order.
func StitchRings(segments []Segment) StitchResult {
	var res StitchResult

	s := &stitcher{
		ends: make(map[int64][]int),
	}
	for _, seg := range segments {
		if len(seg.Nodes) < 2 {
			res.Dropped = append(res.Dropped, seg.WayID)
			continue
		}
		s.segs = append(s.segs, seg)
	}
	s.used = make([]bool, len(s.segs))

	for i, seg := range s.segs {
		first, last := seg.Nodes[0], seg.Nodes[len(seg.Nodes)-1]
		if first == last {
			continue // already closed, never a connector
		}
		s.ends[first] = append(s.ends[first], i)
		s.ends[last] = append(s.ends[last], i)
	}

	for i, seg := range s.segs {
		if s.used[i] {
			continue
		}
		s.used[i] = true

		head, tail := seg.Nodes[0], seg.Nodes[len(seg.Nodes)-1]
		s.budget = 64*len(s.segs) + 256

		chain, ok := s.extend(head, tail, []step{{seg: i}}, len(seg.Nodes))
		if !ok {
			res.Dropped = append(res.Dropped, seg.WayID)
			continue
		}
		res.Rings = append(res.Rings, s.materialise(chain))
	}

	return res
}

// extend walks from tail until it returns to head. n is the node count of the chain so far.
// A closure shorter than minRingNodes is a dead end. Segments on a successful chain stay
// marked used.
func (s *stitcher) extend(head, tail int64, chain []step, n int) ([]step, bool) {
	if tail == head {
		return chain, n >= minRingNodes
	}
	if s.budget <= 0 {
		return nil, false
	}
	s.budget--

	for _, j := range s.ends[tail] {
		if s.used[j] {
			continue
		}
		nodes := s.segs[j].Nodes
		reversed := nodes[0] != tail
		next := nodes[len(nodes)-1]
		if reversed {
			next = nodes[0]
		}

		s.used[j] = true
		if out, ok := s.extend(head, next, append(chain, step{seg: j, reversed: reversed}), n+len(nodes)-1); ok {
			return out, true
		}
		s.used[j] = false
	}
	return nil, false
}

func (s *stitcher) materialise(chain []step) []int64 {
	var ring []int64
	for k, st := range chain {
		nodes := s.segs[st.seg].Nodes
		if st.reversed {
			nodes = reverse(nodes)
		}
		if k > 0 {
			nodes = nodes[1:]
		}
		ring = append(ring, nodes...)
	}
	return ring
}

func reverse(nodes []int64) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}
