package csgowin

import (
	"strconv"

	"github.com/tygolabs/leaderboard-api/internal/domain/leaderboard"
)

// FormatEntries maps the upstream's heterogeneous records into canonical
// leaderboard entries. Field names vary between API versions
// (username/name, wagered/wager, optional weightedWager), missing values
// default to zero, and anything that is not a list becomes an empty slice.
func FormatEntries(data any) []leaderboard.Entry {
	items, ok := data.([]any)
	if !ok {
		return []leaderboard.Entry{}
	}

	out := make([]leaderboard.Entry, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}

		username := getString(record, "username", "name")
		if username == "" {
			username = "Unknown"
		}

		wagered := getFloat(record, "wagered", "wager")
		if wagered < 0 {
			wagered = 0
		}
		weighted := getFloat(record, "weightedWager")
		if weighted <= 0 {
			weighted = wagered
		}

		out = append(out, leaderboard.Entry{
			Username:      leaderboard.MaskUsername(username),
			Wagered:       wagered,
			WeightedWager: weighted,
		})
	}

	return out
}

func getString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := record[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// getFloat returns the first non-zero numeric value among keys; a present
// but zero field falls through to the next candidate, matching the
// upstream's own field-preference behavior.
func getFloat(record map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := record[key].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed != 0 {
				return parsed
			}
		}
	}
	return 0
}
