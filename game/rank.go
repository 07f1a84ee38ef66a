package game

import "sort"

// RankedEntry pairs an id with the numeric key ranks are derived from.
type RankedEntry struct {
	ID  string
	Key float64
}

// RankResult is one entry's computed rank (1-based, ties share the lower
// rank: 1,1,3,4 -- spec.md §4.7, §8).
type RankResult struct {
	ID   string
	Key  float64
	Rank int
}

// Rank sorts entries by Key (ascending, or descending when ascending is
// false) and assigns shared ranks. The single
// helper used everywhere ranks are derived (spec.md §4.7: "applied
// uniformly by a single helper").
func Rank(entries []RankedEntry, ascending bool) []RankResult {
	sorted := make([]RankedEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].Key > sorted[j].Key
	})

	out := make([]RankResult, len(sorted))
	rank := 1
	for i, e := range sorted {
		if i > 0 && sorted[i].Key == sorted[i-1].Key {
			out[i] = RankResult{ID: e.ID, Key: e.Key, Rank: out[i-1].Rank}
		} else {
			out[i] = RankResult{ID: e.ID, Key: e.Key, Rank: rank}
		}
		rank = i + 2
	}
	return out
}

// PlacementBonus returns bonuses[rank-1], or 0 if rank exceeds the vector.
func PlacementBonus(bonuses []int, rank int) int {
	idx := rank - 1
	if idx < 0 || idx >= len(bonuses) {
		return 0
	}
	return bonuses[idx]
}

// DefaultPlacementBonuses is the default [5,3,1,0,...] vector (spec.md §4.7).
func DefaultPlacementBonuses() []int { return []int{5, 3, 1, 0} }
