package aggregate

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pkordes/placebook/internal/domain"
)

// Top-rated pipeline settings.
const (
	MinRatingCount = 2
	TopRatedLimit  = 10
)

// Lookup left-joins ratings onto places by place ID. Every place appears once,
// with an empty rating list when nobody rated it. Ratings for unknown places
// are ignored.
func Lookup(places []domain.Place, ratings []domain.Rating) []domain.RatedPlace {
	byPlace := make(map[uuid.UUID][]float64, len(places))
	for _, r := range ratings {
		byPlace[r.PlaceID] = append(byPlace[r.PlaceID], r.Rating)
	}
	out := make([]domain.RatedPlace, 0, len(places))
	for _, p := range places {
		out = append(out, domain.RatedPlace{Place: p, Ratings: byPlace[p.ID]})
	}
	return out
}

// MinRatings keeps rows with at least n ratings. Rows below the threshold are
// dropped, not scored as zero.
func MinRatings(rows []domain.RatedPlace, n int) []domain.RatedPlace {
	out := make([]domain.RatedPlace, 0, len(rows))
	for _, r := range rows {
		if len(r.Ratings) >= n {
			out = append(out, r)
		}
	}
	return out
}

// Average computes the arithmetic mean of each row's ratings. Rows without
// ratings get an average of zero; filter them out first with MinRatings.
func Average(rows []domain.RatedPlace) []domain.TopPlace {
	out := make([]domain.TopPlace, 0, len(rows))
	for _, r := range rows {
		tp := domain.TopPlace{Place: r.Place, RatingCount: len(r.Ratings)}
		if len(r.Ratings) > 0 {
			var sum float64
			for _, v := range r.Ratings {
				sum += v
			}
			tp.AverageRating = sum / float64(len(r.Ratings))
		}
		out = append(out, tp)
	}
	return out
}

// SortByAverage orders by average rating descending, then by name and slug
// so equal averages come back in a stable order.
func SortByAverage(top []domain.TopPlace) []domain.TopPlace {
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].AverageRating != top[j].AverageRating {
			return top[i].AverageRating > top[j].AverageRating
		}
		if top[i].Place.Name != top[j].Place.Name {
			return top[i].Place.Name < top[j].Place.Name
		}
		return top[i].Place.Slug < top[j].Place.Slug
	})
	return top
}

// Limit truncates to at most n entries.
func Limit(top []domain.TopPlace, n int) []domain.TopPlace {
	if n >= 0 && len(top) > n {
		return top[:n]
	}
	return top
}

// TopRated is MinRatings(2), Average, SortByAverage, Limit(n).
func TopRated(rows []domain.RatedPlace, n int) []domain.TopPlace {
	return Limit(SortByAverage(Average(MinRatings(rows, MinRatingCount))), n)
}
