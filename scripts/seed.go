package main

import (
	"context"
	"fmt"
	"os"

	"github.com/zatekoja/apprating/internal/adapters/kvstore"
	"github.com/zatekoja/apprating/internal/adapters/storage"
	"github.com/zatekoja/apprating/internal/application/services"
	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
	"github.com/zatekoja/apprating/pkg/config"
)

type seedReview struct {
	user    string
	name    string
	rating  float64
	title   string
	comment string
}

var seedBuckets = map[entities.BucketKey][]seedReview{
	{TargetType: "product", TargetID: "espresso-machine"}: {
		{user: "u-ada", name: "Ada", rating: 5, title: "Cafe quality", comment: "Pulls a great shot every morning."},
		{user: "u-tunde", name: "Tunde", rating: 4.5, comment: "Steam wand is a bit slow but the coffee is excellent."},
		{user: "u-mei", name: "Mei", rating: 3, title: "Loud", comment: "Works fine, the grinder is very noisy."},
	},
	{TargetType: "product", TargetID: "travel-mug"}: {
		{user: "u-ada", name: "Ada", rating: 4, comment: "Keeps coffee hot for hours."},
		{user: "u-lars", name: "Lars", rating: 2, title: "Leaks", comment: "The lid leaks when tipped over."},
	},
	{TargetType: "venue", TargetID: "harbour-roastery"}: {
		{user: "u-mei", name: "Mei", rating: 5, comment: "Friendly staff and a lovely view."},
		{user: "u-tunde", name: "Tunde", rating: 4, comment: "Busy at weekends."},
		{user: "u-lars", name: "Lars", rating: 3.5, comment: "Good beans, pricey pastries."},
		{user: "u-sam", name: "Sam", rating: 4.5, comment: "Best flat white in town."},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("apprating-seed", cfg.Log.Env, cfg.Log.Level)
	logger := observability.GetLogger()

	ctx := context.Background()

	backend, err := kvstore.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open store")
	}
	defer backend.Close()

	if os.Getenv("RESET_DB") == "true" {
		logger.Info().Msg("RESET_DB=true detected, clearing seeded buckets before seeding")
		for key := range seedBuckets {
			if err := backend.Store.RemoveItem(ctx, storage.BucketKey(key)); err != nil {
				logger.Fatal().Err(err).Str("bucket", key.String()).Msg("failed to clear bucket")
			}
		}
	}

	reviews := services.NewReviewService(storage.NewReviewAdapter(backend.Store))

	for key, seeds := range seedBuckets {
		if _, err := reviews.LoadReviews(ctx, key); err != nil {
			logger.Warn().Err(err).Str("bucket", key.String()).Msg("bucket unreadable, seeding over it")
		}
		for _, s := range seeds {
			input := entities.ReviewInput{Rating: s.rating, Title: s.title, Comment: s.comment, UserName: s.name}
			if _, err := reviews.AddReview(ctx, key, input, s.user); err != nil {
				logger.Error().Err(err).Str("bucket", key.String()).Str("user", s.user).Msg("failed to add review")
			}
		}

		stats := reviews.GetStats(key)
		logger.Info().
			Str("bucket", key.String()).
			Int("count", stats.Count).
			Float64("average", stats.Average).
			Msg("bucket seeded")
	}

	prompts := services.NewPromptService(storage.NewPromptStateAdapter(backend.Store), nil)
	if _, err := prompts.Reset(ctx, cfg.Rating.StorageKey); err != nil {
		logger.Error().Err(err).Msg("failed to reset prompt state")
	}

	logger.Info().Msg("seeding complete")
}
