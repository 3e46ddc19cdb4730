package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// DecodeVisitedIDs parses a persisted visited set: a JSON array of region ids.
// Entries that are not positive integers are skipped and duplicates removed.
// A payload that is not an array is reported as an error.
func DecodeVisitedIDs(data []byte) ([]int64, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode visited ids: %w", err)
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		n, ok := v.(float64)
		// float64(MaxInt64) rounds up to 2^63, which does not fit in an int64.
		if !ok || n <= 0 || n != math.Trunc(n) || n >= math.MaxInt64 {
			continue
		}
		ids = append(ids, int64(n))
	}
	return UniqueIDs(ids), nil
}

// EncodeVisitedIDs serialises a visited set as a JSON array in ascending order.
func EncodeVisitedIDs(ids []int64) ([]byte, error) {
	return json.Marshal(UniqueIDs(ids))
}

// UniqueIDs returns ids sorted ascending without duplicates. The input is not modified.
func UniqueIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
