package metadata

import (
	"math"
	"sort"
	"time"
)

// RankRecommendations orders items by rating, then release date, both
// descending. Missing ratings rank lowest and missing or malformed dates rank
// earliest. Ties keep their source order. The input slice is not modified.
func RankRecommendations(items []MediaItem) []MediaItem {
	ranked := make([]MediaItem, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ratingKey(ranked[i]), ratingKey(ranked[j])
		if ri != rj {
			return ri > rj
		}
		return dateKey(ranked[i]).After(dateKey(ranked[j]))
	})
	return ranked
}

func ratingKey(item MediaItem) float64 {
	if item.VoteAverage == nil {
		return math.Inf(-1)
	}
	return *item.VoteAverage
}

// dateKey is the zero time for undated items, which precedes any real date.
func dateKey(item MediaItem) time.Time {
	t, _ := parseDate(item.ReleaseDate)
	return t
}
