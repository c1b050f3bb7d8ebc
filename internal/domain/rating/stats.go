package rating

import (
	"fmt"
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"github.com/zatekoja/apprating/internal/domain/entities"
)

// CalculateAverageRating returns the mean rating rounded half-up to one decimal,
// or 0 for an empty bucket.
func CalculateAverageRating(reviews []*entities.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}

	data := make(stats.Float64Data, 0, len(reviews))
	for _, r := range reviews {
		data = append(data, r.Rating)
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	avg, err := stats.Round(mean, 1)
	if err != nil {
		return 0
	}
	return avg
}

// CalculateDistribution buckets each review under its rating rounded half-up to a
// whole star. Half stars are not split: 3.5 counts once under 4. Ratings that round
// to 0 are counted in the total but appear in no star slot.
func CalculateDistribution(reviews []*entities.Review) entities.Distribution {
	dist := entities.NewDistribution()
	for _, r := range reviews {
		star, err := stats.Round(r.Rating, 0)
		if err != nil {
			continue
		}
		if s := int(star); s >= 1 && s <= 5 {
			dist[s]++
		}
	}
	return dist
}

// CalculateStats derives the summary statistics of a bucket.
func CalculateStats(reviews []*entities.Review) entities.RatingStats {
	return entities.RatingStats{
		Average:      CalculateAverageRating(reviews),
		Count:        len(reviews),
		Distribution: CalculateDistribution(reviews),
	}
}

// SortReviews returns a stably sorted copy ordered by the given key, descending.
// An unknown key returns reviews itself, untouched.
func SortReviews(reviews []*entities.Review, by entities.SortKey) []*entities.Review {
	var cmp func(a, b *entities.Review) int
	switch by {
	case entities.SortRecent:
		cmp = func(a, b *entities.Review) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case entities.SortHelpful:
		cmp = func(a, b *entities.Review) int { return b.Helpful - a.Helpful }
	case entities.SortRating:
		cmp = func(a, b *entities.Review) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			}
			return 0
		}
	default:
		return reviews
	}

	sorted := slices.Clone(reviews)
	slices.SortStableFunc(sorted, cmp)
	return sorted
}

// RoundToHalf snaps value to the nearest half star and clamps it to [0, 5].
func RoundToHalf(value float64) float64 {
	rounded := math.Floor(value*2+0.5) / 2
	return math.Max(0, math.Min(5, rounded))
}

// FormatRatingText renders a rating as "4.5 out of 5".
func FormatRatingText(value float64) string {
	return fmt.Sprintf("%.1f out of 5", value)
}
