package ai

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/domain/recipe"
	"github.com/rasoiops/rasoiops/internal/domain/shared"
	"github.com/rasoiops/rasoiops/internal/ports/inbound"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
	"github.com/rasoiops/rasoiops/pkg/jsonspan"
	"go.uber.org/zap"
)

// RecommendationService asks the model for recipes that use up the
// inventory. Requests are numbered as they are issued and only the most
// recently issued one may replace the current suggestion set.
type RecommendationService struct {
	caller     caller
	opts       Options
	clock      shared.Clock
	window     func() time.Duration
	dispatcher shared.EventDispatcher
	logger     *zap.Logger

	issued atomic.Uint64

	mu     sync.RWMutex
	latest *recipe.SuggestionSet
}

var _ inbound.RecommendationService = (*RecommendationService)(nil)

// NewRecommendationService creates the recommendation client. window returns
// the current expiring-soon window; dispatcher may be nil.
func NewRecommendationService(
	provider outbound.ModelProvider,
	opts Options,
	clock shared.Clock,
	window func() time.Duration,
	dispatcher shared.EventDispatcher,
	logger *zap.Logger,
) *RecommendationService {
	opts = opts.withDefaults()
	if clock == nil {
		clock = shared.SystemClock
	}
	if window == nil {
		window = func() time.Duration { return inventory.DefaultExpiringSoonWindow }
	}
	logger = logger.Named("recommendation")
	return &RecommendationService{
		caller:     newCaller(provider, opts, logger),
		opts:       opts,
		clock:      clock,
		window:     window,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Recommend requests recipes for items and goal. A blank goal uses
// DefaultDietaryGoal. If a newer request is issued before this one resolves,
// its outcome is discarded and a superseded error is returned.
func (s *RecommendationService) Recommend(ctx context.Context, items []inventory.Item, goal string) (*inbound.RecommendationResult, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		goal = DefaultDietaryGoal
	}

	seq := s.issued.Add(1)
	prompt := BuildRecommendationPrompt(BuildInventoryContext(items, s.clock(), s.window()), goal)

	resp, err := s.caller.generate(ctx, OperationRecommend, outbound.ModelRequest{
		Prompt:      prompt,
		Schema:      suggestionsSchema,
		Temperature: s.opts.Temperature,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.issued.Load(); current != seq {
		s.opts.Metrics.RecommendationSuperseded()
		s.logger.Info("Discarding stale recommendation",
			zap.Uint64("sequence", seq),
			zap.Uint64("current", current),
			zap.NamedError("call_error", err))
		return nil, apperrors.NewRequestSupersededError(seq)
	}
	if err != nil {
		return nil, err
	}

	result := &inbound.RecommendationResult{Sequence: seq, Recipes: []recipe.Suggestion{}}
	decoded, err := jsonspan.DecodeArray[recipe.Suggestion](resp.Text)
	if err != nil {
		s.opts.Metrics.AIParseFailure(s.caller.provider.Name(), OperationRecommend)
		s.logger.Warn("Could not decode recipe suggestions",
			zap.Uint64("sequence", seq),
			zap.Error(err))
		result.ParseFailed = true
		result.RawResponse = resp.Text
	} else {
		for _, r := range decoded {
			result.Recipes = append(result.Recipes, r.Normalize())
		}
	}

	s.commit(seq, goal, result)
	return result, nil
}

// commit must be called with mu held
func (s *RecommendationService) commit(seq uint64, goal string, result *inbound.RecommendationResult) {
	set := &recipe.SuggestionSet{
		Sequence:    seq,
		Goal:        goal,
		Recipes:     result.Recipes,
		ParseFailed: result.ParseFailed,
		GeneratedAt: s.clock(),
	}
	s.latest = set

	s.logger.Info("Committed recipe suggestions",
		zap.Uint64("sequence", seq),
		zap.Int("count", len(set.Recipes)),
		zap.Bool("parse_error", set.ParseFailed))

	if s.dispatcher == nil {
		return
	}
	event := recipe.SuggestionsGeneratedEvent{
		Sequence:    seq,
		Goal:        goal,
		Count:       len(set.Recipes),
		GeneratedAt: set.GeneratedAt,
	}
	if err := s.dispatcher.Dispatch(event); err != nil {
		s.logger.Error("Failed to dispatch event", zap.String("event", event.EventName()), zap.Error(err))
	}
}

// Latest returns the most recently committed suggestion set
func (s *RecommendationService) Latest() (*recipe.SuggestionSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	cp := *s.latest
	return &cp, true
}
