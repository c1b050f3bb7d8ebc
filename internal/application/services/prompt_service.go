package services

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/apprating/internal/domain/entities"
	"github.com/zatekoja/apprating/internal/domain/rating"
	"github.com/zatekoja/apprating/internal/domain/repositories"
	"github.com/zatekoja/apprating/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

// DefaultStorageKey is the prompt storage key used when callers pass none.
const DefaultStorageKey = "@app_rating"

// DefaultMinimumStoreRating is the lowest app rating routed to the store review sheet.
const DefaultMinimumStoreRating = 4

// PromptService owns the "rate this app" prompt state of each storage key.
//
// The in-memory state is authoritative for the life of the service: a failed write
// still updates it and the STORAGE error is returned next to the new state.
type PromptService struct {
	repo           repositories.PromptStateRepository
	storeReview    *StoreReviewService
	metrics        *observability.Metrics
	minStoreRating int
	now            func() time.Time

	locks    *keyLocks
	// statesMu guards states only; per-key work is serialised by locks
	statesMu sync.Mutex
	states   map[string]entities.PromptState
}

// PromptOption configures a PromptService
type PromptOption func(*PromptService)

// WithPromptClock replaces time.Now
func WithPromptClock(now func() time.Time) PromptOption {
	return func(s *PromptService) { s.now = now }
}

// WithPromptMetrics records prompt decisions and storage failures
func WithPromptMetrics(m *observability.Metrics) PromptOption {
	return func(s *PromptService) { s.metrics = m }
}

// WithMinimumStoreRating sets the lowest rating routed to the store review sheet
func WithMinimumStoreRating(min int) PromptOption {
	return func(s *PromptService) { s.minStoreRating = min }
}

// NewPromptService creates a new prompt service. storeReview may be nil.
func NewPromptService(repo repositories.PromptStateRepository, storeReview *StoreReviewService, opts ...PromptOption) *PromptService {
	s := &PromptService{
		repo:           repo,
		storeReview:    storeReview,
		minStoreRating: DefaultMinimumStoreRating,
		now:            time.Now,
		locks:          newKeyLocks(),
		states:         make(map[string]entities.PromptState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeStorageKey(storageKey string) string {
	if storageKey == "" {
		return DefaultStorageKey
	}
	return storageKey
}

// Initialize (re)loads the state of storageKey from storage. An absent snapshot yields
// the zero state and no error; a corrupt or unreadable one yields the zero state and
// the CORRUPT or STORAGE error.
func (s *PromptService) Initialize(ctx context.Context, storageKey string) (entities.PromptState, error) {
	storageKey = normalizeStorageKey(storageKey)
	unlock := s.locks.lock(storageKey)
	defer unlock()

	return s.load(ctx, storageKey)
}

func (s *PromptService) load(ctx context.Context, storageKey string) (entities.PromptState, error) {
	state := entities.DefaultPromptState()

	loaded, err := s.repo.Load(ctx, storageKey)
	switch {
	case err == nil:
		state = *loaded
	case apperrors.IsNotFound(err):
		err = nil
	default:
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("storage_key", storageKey).
			Msg("failed to load prompt state, using defaults")
		observability.RecordStorageFailure(ctx, s.metrics, "prompt.load")
	}

	s.put(storageKey, state)
	return state.Clone(), err
}

func (s *PromptService) get(storageKey string) (entities.PromptState, bool) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	state, ok := s.states[storageKey]
	return state, ok
}

func (s *PromptService) put(storageKey string, state entities.PromptState) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	s.states[storageKey] = state
}

// current returns the cached state, loading it on first use. Load errors were
// already logged and leave the zero state in place.
func (s *PromptService) current(ctx context.Context, storageKey string) entities.PromptState {
	if state, ok := s.get(storageKey); ok {
		return state.Clone()
	}
	state, _ := s.load(ctx, storageKey)
	return state
}

// mutate applies fn to the state of storageKey, caches the result and persists it.
func (s *PromptService) mutate(ctx context.Context, storageKey string, op string, fn func(*entities.PromptState)) (entities.PromptState, error) {
	storageKey = normalizeStorageKey(storageKey)
	unlock := s.locks.lock(storageKey)
	defer unlock()

	state := s.current(ctx, storageKey)
	fn(&state)
	s.put(storageKey, state)

	if err := s.repo.Save(ctx, storageKey, &state); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("storage_key", storageKey).
			Str("op", op).
			Msg("failed to persist prompt state, keeping in-memory state")
		observability.RecordStorageFailure(ctx, s.metrics, "prompt."+op)
		return state.Clone(), err
	}
	return state.Clone(), nil
}

// State returns the current state of storageKey
func (s *PromptService) State(ctx context.Context, storageKey string) entities.PromptState {
	storageKey = normalizeStorageKey(storageKey)
	unlock := s.locks.lock(storageKey)
	defer unlock()
	return s.current(ctx, storageKey)
}

// IncrementActionCount records one qualifying user action
func (s *PromptService) IncrementActionCount(ctx context.Context, storageKey string) (entities.PromptState, error) {
	return s.mutate(ctx, storageKey, "increment", func(state *entities.PromptState) {
		state.ActionCount++
	})
}

// SetRating records the app rating the user gave
func (s *PromptService) SetRating(ctx context.Context, storageKey string, value int) (entities.PromptState, error) {
	if err := entities.ValidatePromptRating(value); err != nil {
		return s.State(ctx, storageKey), err
	}
	now := s.now()
	return s.mutate(ctx, storageKey, "rate", func(state *entities.PromptState) {
		state.HasRated = true
		state.LastRatingDate = &now
		state.RatingValue = &value
	})
}

// SetDismissed records that the user closed the prompt without rating
func (s *PromptService) SetDismissed(ctx context.Context, storageKey string) (entities.PromptState, error) {
	now := s.now()
	return s.mutate(ctx, storageKey, "dismiss", func(state *entities.PromptState) {
		state.Dismissed = true
		state.LastDismissedDate = &now
	})
}

// Reset restores the zero state
func (s *PromptService) Reset(ctx context.Context, storageKey string) (entities.PromptState, error) {
	return s.mutate(ctx, storageKey, "reset", func(state *entities.PromptState) {
		*state = entities.DefaultPromptState()
	})
}

// ShouldShowRating evaluates the eligibility policy against the current state
func (s *PromptService) ShouldShowRating(ctx context.Context, storageKey string, cfg entities.PromptConfig) bool {
	state := s.State(ctx, storageKey)
	show := rating.ShouldShowRating(state, cfg, s.now())
	observability.RecordPromptDecision(ctx, s.metrics, show)
	return show
}

// TrackAction increments the action count and then evaluates the policy
func (s *PromptService) TrackAction(ctx context.Context, storageKey string, cfg entities.PromptConfig) (entities.PromptState, bool, error) {
	state, err := s.IncrementActionCount(ctx, storageKey)
	show := rating.ShouldShowRating(state, cfg, s.now())
	observability.RecordPromptDecision(ctx, s.metrics, show)
	return state, show, err
}

// SubmitRating records the rating and routes it: ratings at or above the store
// threshold request the store review sheet, lower ones ask for private feedback.
// Routing happens even when persisting the rating failed.
func (s *PromptService) SubmitRating(ctx context.Context, storageKey string, value int) (entities.RatingOutcome, error) {
	state, err := s.SetRating(ctx, storageKey, value)
	if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		return entities.RatingOutcome{State: state}, err
	}

	outcome := entities.RatingOutcome{State: state}
	if value >= s.minStoreRating {
		outcome.StoreReviewRequested = s.storeReview.RequestStoreReview(ctx)
	} else {
		outcome.FeedbackRequested = true
	}
	return outcome, err
}
