package domain

import "sort"

// SortLeaderboard orders entries by score, then accuracy, both descending.
// User id breaks remaining ties so the order is stable across stores.
func SortLeaderboard(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Accuracy != entries[j].Accuracy {
			return entries[i].Accuracy > entries[j].Accuracy
		}
		return entries[i].UserID < entries[j].UserID
	})
}

// SortResults orders session results like SortLeaderboard.
func SortResults(results []SessionResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].SessionScore != results[j].SessionScore {
			return results[i].SessionScore > results[j].SessionScore
		}
		if results[i].Accuracy != results[j].Accuracy {
			return results[i].Accuracy > results[j].Accuracy
		}
		return results[i].UserID < results[j].UserID
	})
}

// Truncate caps items at limit. A non-positive limit keeps everything.
func Truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
