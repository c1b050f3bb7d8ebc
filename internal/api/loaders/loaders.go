package loaders

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/zatekoja/apprating/internal/domain/entities"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

const batchWait = 2 * time.Millisecond

// StatsSource computes stats for many buckets in one call
type StatsSource interface {
	StatsForBuckets(ctx context.Context, keys []entities.BucketKey) (map[entities.BucketKey]entities.RatingStats, error)
}

// Loaders contains the request-scoped dataloaders
type Loaders struct {
	StatsLoader *dataloader.Loader[entities.BucketKey, entities.RatingStats]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(source StatsSource) *Loaders {
	return &Loaders{
		StatsLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []entities.BucketKey) []*dataloader.Result[entities.RatingStats] {
			results := make([]*dataloader.Result[entities.RatingStats], len(keys))
			stats, err := source.StatsForBuckets(ctx, keys)

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[entities.RatingStats]{Error: err}
					continue
				}
				results[i] = &dataloader.Result[entities.RatingStats]{Data: stats[key]}
			}
			return results
		}, dataloader.WithWait[entities.BucketKey, entities.RatingStats](batchWait)),
	}
}

// For returns the loaders for a given context, or nil
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(loadersKey).(*Loaders)
	return loaders
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware attaches fresh loaders to every request so batches never outlive it
func Middleware(source StatsSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(source))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
