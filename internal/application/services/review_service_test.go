package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/apprating/internal/adapters/events"
	"github.com/zatekoja/apprating/internal/adapters/storage"
	"github.com/zatekoja/apprating/internal/application/services"
	"github.com/zatekoja/apprating/internal/domain/entities"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

var product = entities.BucketKey{TargetType: "product", TargetID: "p1"}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("review_%03d", n)
	}
}

func newReviewService(store *FlakyStore, clock *fakeClock, opts ...services.ReviewOption) *services.ReviewService {
	opts = append([]services.ReviewOption{
		services.WithReviewClock(clock.Now),
		services.WithReviewIDGenerator(sequentialIDs()),
	}, opts...)
	return services.NewReviewService(storage.NewReviewAdapter(store), opts...)
}

func TestReviewService_AddReview(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	clock := newFakeClock()
	svc := newReviewService(store, clock)

	review, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 4, Comment: "solid"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "review_001", review.ID)
	assert.Equal(t, "u1", review.UserID)
	assert.Equal(t, 0, review.Helpful)
	assert.Equal(t, clock.Now(), review.CreatedAt)
	assert.Equal(t, clock.Now(), review.UpdatedAt)

	_, err = svc.AddReview(ctx, product, entities.ReviewInput{Rating: 5}, "u2")
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, product, entities.ReviewInput{Rating: 3}, "u3")
	require.NoError(t, err)

	stats := svc.GetStats(product)
	assert.Equal(t, 4.0, stats.Average)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, entities.Distribution{1: 0, 2: 0, 3: 1, 4: 1, 5: 1}, stats.Distribution)

	reviews := svc.GetReviews(product)
	require.Len(t, reviews, 3)
	assert.Equal(t, "review_001", reviews[0].ID)
	assert.Equal(t, "review_003", reviews[2].ID)

	raw, err := store.GetString(ctx, "@reviews:product:p1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"id":"review_003"`)
}

func TestReviewService_AddValidation(t *testing.T) {
	ctx := context.Background()
	svc := newReviewService(NewFlakyStore(), newFakeClock())

	_, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 4.3}, "u1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.AddReview(ctx, product, entities.ReviewInput{Rating: 4}, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.AddReview(ctx, entities.BucketKey{TargetType: "product"}, entities.ReviewInput{Rating: 4}, "u1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	assert.Empty(t, svc.GetReviews(product))
}

func TestReviewService_AddThenDeleteRestoresStats(t *testing.T) {
	ctx := context.Background()
	svc := newReviewService(NewFlakyStore(), newFakeClock())

	_, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 2}, "u1")
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, product, entities.ReviewInput{Rating: 4.5}, "u2")
	require.NoError(t, err)
	before := svc.GetStats(product)

	added, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 5}, "u3")
	require.NoError(t, err)
	assert.NotEqual(t, before, svc.GetStats(product))

	require.NoError(t, svc.DeleteReview(ctx, added.ID))
	assert.Equal(t, before, svc.GetStats(product))
	assert.Len(t, svc.GetReviews(product), 2)
}

func TestReviewService_UpdateUnknownIDLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	svc := newReviewService(store, newFakeClock())

	_, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 3, Comment: "ok"}, "u1")
	require.NoError(t, err)
	before, err := store.GetString(ctx, "@reviews:product:p1")
	require.NoError(t, err)

	comment := "changed"
	_, err = svc.UpdateReview(ctx, "review_999", entities.ReviewPatch{Comment: &comment})
	assert.True(t, apperrors.IsNotFound(err))

	assert.True(t, apperrors.IsNotFound(svc.DeleteReview(ctx, "review_999")))
	_, err = svc.MarkHelpful(ctx, "review_999")
	assert.True(t, apperrors.IsNotFound(err))

	after, err := store.GetString(ctx, "@reviews:product:p1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 2, store.Len(), "the bucket and the index key of review_001")
}

func TestReviewService_FindsPersistedReviewsAfterRestart(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	clock := newFakeClock()

	first := newReviewService(store, clock)
	kept, err := first.AddReview(ctx, product, entities.ReviewInput{Rating: 4, Comment: "solid"}, "u1")
	require.NoError(t, err)
	gone, err := first.AddReview(ctx, product, entities.ReviewInput{Rating: 2}, "u2")
	require.NoError(t, err)

	restarted := newReviewService(store, clock)
	require.False(t, restarted.IsLoaded(product))

	helpful, err := restarted.MarkHelpful(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, helpful.Helpful)
	assert.True(t, restarted.IsLoaded(product))

	comment := "still solid"
	updated, err := newReviewService(store, clock).UpdateReview(ctx, kept.ID, entities.ReviewPatch{Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, "still solid", updated.Comment)
	assert.Equal(t, 1, updated.Helpful)

	require.NoError(t, newReviewService(store, clock).DeleteReview(ctx, gone.ID))
	_, err = newReviewService(store, clock).MarkHelpful(ctx, gone.ID)
	assert.True(t, apperrors.IsNotFound(err), "deleting a review drops its index key")

	reviews, err := newReviewService(store, clock).LoadReviews(ctx, product)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, kept.ID, reviews[0].ID)
}

func TestReviewService_UpdateAndHelpful(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	clock := newFakeClock()
	svc := newReviewService(store, clock)
	other := entities.BucketKey{TargetType: "shop", TargetID: "s9"}

	_, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 3}, "u1")
	require.NoError(t, err)
	target, err := svc.AddReview(ctx, other, entities.ReviewInput{Rating: 2, Comment: "slow"}, "u2")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	newRating := 4.5
	comment := "faster now"
	updated, err := svc.UpdateReview(ctx, target.ID, entities.ReviewPatch{Rating: &newRating, Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, 4.5, updated.Rating)
	assert.Equal(t, "faster now", updated.Comment)
	assert.Equal(t, clock.Now(), updated.UpdatedAt)
	assert.Equal(t, target.CreatedAt, updated.CreatedAt)
	assert.Equal(t, 4.5, svc.GetStats(other).Average)
	assert.Equal(t, 3.0, svc.GetStats(product).Average)

	helpful, err := svc.MarkHelpful(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, helpful.Helpful)
	helpful, err = svc.MarkHelpful(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, helpful.Helpful)

	reloaded := newReviewService(store, clock)
	reviews, err := reloaded.LoadReviews(ctx, other)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 2, reviews[0].Helpful)
	assert.Equal(t, "faster now", reviews[0].Comment)
}

func TestReviewService_LoadReviews(t *testing.T) {
	ctx := context.Background()

	t.Run("absent bucket is empty", func(t *testing.T) {
		svc := newReviewService(NewFlakyStore(), newFakeClock())
		reviews, err := svc.LoadReviews(ctx, product)
		require.NoError(t, err)
		assert.Empty(t, reviews)
		assert.Equal(t, 0, svc.GetStats(product).Count)
		assert.True(t, svc.IsLoaded(product))
	})

	t.Run("corrupt bucket is empty with CORRUPT", func(t *testing.T) {
		store := NewFlakyStore()
		require.NoError(t, store.SetString(ctx, "@reviews:product:p1", "[{oops"))
		svc := newReviewService(store, newFakeClock())

		reviews, err := svc.LoadReviews(ctx, product)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCorrupt))
		assert.Empty(t, reviews)
		assert.Equal(t, entities.NewDistribution(), svc.GetStats(product).Distribution)
	})

	t.Run("unindexed reviews are found once their bucket is loaded", func(t *testing.T) {
		store := NewFlakyStore()
		require.NoError(t, store.SetString(ctx, "@reviews:product:p1",
			`[{"id":"review_a","targetType":"product","targetId":"p1","userId":"u1","rating":5,"comment":"","createdAt":1760000000000,"updatedAt":1760000000000}]`))
		svc := newReviewService(store, newFakeClock())

		_, err := svc.MarkHelpful(ctx, "review_a")
		assert.True(t, apperrors.IsNotFound(err), "no index key and no cached bucket")

		_, err = svc.LoadReviews(ctx, product)
		require.NoError(t, err)
		review, err := svc.MarkHelpful(ctx, "review_a")
		require.NoError(t, err)
		assert.Equal(t, 1, review.Helpful)
	})
}

func TestReviewService_WriteFailureKeepsMemoryBucket(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	svc := newReviewService(store, newFakeClock())

	kept, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 5}, "u1")
	require.NoError(t, err)

	store.failWrites.Store(true)
	review, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 1}, "u2")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
	require.NotNil(t, review)
	assert.Equal(t, 2, svc.GetStats(product).Count)
	assert.Equal(t, 3.0, svc.GetStats(product).Average)

	_, err = svc.MarkHelpful(ctx, kept.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
	assert.Equal(t, 1, svc.GetReviews(product)[0].Helpful)

	err = svc.DeleteReview(ctx, review.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
	assert.Equal(t, 1, svc.GetStats(product).Count)

	raw, err := store.GetString(ctx, "@reviews:product:p1")
	require.NoError(t, err)
	assert.NotContains(t, raw, review.ID)
	assert.Contains(t, raw, `"helpful":0`)
}

func TestReviewService_FailedAddStaysListed(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	svc := newReviewService(store, newFakeClock())

	_, err := svc.LoadReviews(ctx, product)
	require.NoError(t, err)

	store.failWrites.Store(true)
	review, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 4, Comment: "offline"}, "u1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
	require.NotNil(t, review)

	assert.True(t, svc.IsLoaded(product), "readers serve the cached bucket")
	listed := svc.SortedReviews(product, entities.SortRecent)
	require.Len(t, listed, 1)
	assert.Equal(t, review.ID, listed[0].ID)
	assert.Equal(t, 1, svc.GetStats(product).Count)

	stats, err := svc.StatsForBuckets(ctx, []entities.BucketKey{product})
	require.NoError(t, err)
	assert.Equal(t, 1, stats[product].Count)

	_, err = svc.LoadReviews(ctx, product)
	require.NoError(t, err)
	assert.Empty(t, svc.GetReviews(product), "an explicit reload replaces the cache with storage")
}

func TestReviewService_SortedReviews(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newReviewService(NewFlakyStore(), clock)

	first, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 2}, "u1")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 5}, "u2")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	third, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 3}, "u3")
	require.NoError(t, err)
	_, err = svc.MarkHelpful(ctx, first.ID)
	require.NoError(t, err)

	ids := func(reviews []*entities.Review) []string {
		out := make([]string, len(reviews))
		for i, r := range reviews {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(svc.SortedReviews(product, entities.SortRecent)))
	assert.Equal(t, []string{second.ID, third.ID, first.ID}, ids(svc.SortedReviews(product, entities.SortRating)))
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, ids(svc.SortedReviews(product, entities.SortHelpful)))
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, ids(svc.SortedReviews(product, "newest")))
}

func TestReviewService_ConcurrentAddsAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	clock := newFakeClock()
	ids := sequentialIDs()

	// two services over one store stand in for two server instances
	a := services.NewReviewService(storage.NewReviewAdapter(store), services.WithReviewClock(clock.Now), services.WithReviewIDGenerator(ids))
	b := services.NewReviewService(storage.NewReviewAdapter(store), services.WithReviewClock(clock.Now), services.WithReviewIDGenerator(ids))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc := a
			if i%2 == 1 {
				svc = b
			}
			_, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 4}, fmt.Sprintf("u%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	reviews, err := a.LoadReviews(ctx, product)
	require.NoError(t, err)
	assert.Len(t, reviews, 20)
}

func TestReviewService_StatsForBuckets(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	writer := newReviewService(store, newFakeClock())
	other := entities.BucketKey{TargetType: "shop", TargetID: "s1"}
	empty := entities.BucketKey{TargetType: "shop", TargetID: "none"}

	_, err := writer.AddReview(ctx, product, entities.ReviewInput{Rating: 4}, "u1")
	require.NoError(t, err)
	_, err = writer.AddReview(ctx, other, entities.ReviewInput{Rating: 2}, "u1")
	require.NoError(t, err)

	reader := newReviewService(store, newFakeClock())
	stats, err := reader.StatsForBuckets(ctx, []entities.BucketKey{product, other, empty, product})
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, 4.0, stats[product].Average)
	assert.Equal(t, 2.0, stats[other].Average)
	assert.Equal(t, 0, stats[empty].Count)
	assert.True(t, reader.IsLoaded(other))

	_, err = reader.StatsForBuckets(ctx, []entities.BucketKey{{TargetType: "shop"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestReviewService_StatsForBucketsKeepsConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := NewFlakyStore()
	clock := newFakeClock()

	_, err := newReviewService(store, clock).AddReview(ctx, product, entities.ReviewInput{Rating: 5}, "u0")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		svc := services.NewReviewService(storage.NewReviewAdapter(store), services.WithReviewClock(clock.Now))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.StatsForBuckets(ctx, []entities.BucketKey{product})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 3}, fmt.Sprintf("u%d", i+1))
			assert.NoError(t, err)
		}()
		wg.Wait()

		assert.Len(t, svc.GetReviews(product), i+2)
	}
}

func TestReviewService_PublishesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewMemoryEventBus()
	defer bus.Close()
	ch, err := bus.Subscribe(ctx, "reviews:test")
	require.NoError(t, err)

	svc := newReviewService(NewFlakyStore(), newFakeClock(), services.WithEventBus(bus, "reviews:test"))
	review, err := svc.AddReview(ctx, product, entities.ReviewInput{Rating: 4}, "u1")
	require.NoError(t, err)

	select {
	case event := <-ch:
		assert.Equal(t, entities.ReviewEventCreated, event.Type)
		assert.Equal(t, product, event.Bucket)
		assert.Equal(t, review.ID, event.ReviewID)
		assert.Equal(t, svc.InstanceID(), event.Origin)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}
