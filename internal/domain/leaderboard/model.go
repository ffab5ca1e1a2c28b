package leaderboard

import "sort"

// Entry is the canonical leaderboard record served to the front-end,
// regardless of which upstream source produced it.
type Entry struct {
	Username      string  `json:"username"`
	Wagered       float64 `json:"wagered"`
	WeightedWager float64 `json:"weightedWager"`
}

// MaskUsername hides the middle of a username before external exposure.
// Names of four characters or fewer pass through unchanged.
func MaskUsername(username string) string {
	runes := []rune(username)
	if len(runes) <= 4 {
		return username
	}
	return string(runes[:2]) + "***" + string(runes[len(runes)-2:])
}

// SortByWageredDesc orders entries by wagered amount, highest first.
// The sort is stable so equal amounts keep their upstream order.
func SortByWageredDesc(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Wagered > entries[j].Wagered
	})
}

// Truncate returns at most limit entries.
func Truncate(entries []Entry, limit int) []Entry {
	if limit < 0 {
		limit = 0
	}
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
