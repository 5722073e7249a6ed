// Package aggregate implements the derived, read-only views of the directory
// as small composable stages. Nothing here touches storage: stores hand over
// raw rows and the stages turn them into histograms and rankings.
package aggregate

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pkordes/placebook/internal/domain"
)

// TagRow is one (place, tag) pair produced by Unwind.
type TagRow struct {
	PlaceID uuid.UUID
	Tag     string
}

// Unwind flattens every place's tag list into one row per (place, tag) pair.
// Places without tags contribute nothing.
func Unwind(places []domain.PlaceTags) []TagRow {
	var rows []TagRow
	for _, p := range places {
		for _, tag := range p.Tags {
			rows = append(rows, TagRow{PlaceID: p.PlaceID, Tag: tag})
		}
	}
	return rows
}

// GroupCount counts rows per tag. Output order follows first appearance.
func GroupCount(rows []TagRow) []domain.TagCount {
	index := make(map[string]int)
	counts := []domain.TagCount{}
	for _, r := range rows {
		i, ok := index[r.Tag]
		if !ok {
			i = len(counts)
			index[r.Tag] = i
			counts = append(counts, domain.TagCount{Tag: r.Tag})
		}
		counts[i].Count++
	}
	return counts
}

// SortByCount orders buckets by count descending. Ties are broken by tag name
// so the output is stable between calls.
func SortByCount(counts []domain.TagCount) []domain.TagCount {
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
	return counts
}

// TagHistogram is Unwind, GroupCount, SortByCount.
func TagHistogram(places []domain.PlaceTags) []domain.TagCount {
	return SortByCount(GroupCount(Unwind(places)))
}
