package ai

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/domain/recipe"
	"github.com/rasoiops/rasoiops/internal/domain/shared"
	"github.com/rasoiops/rasoiops/internal/infrastructure/ai/mock"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func item(name, quantity string, expiresIn time.Duration) inventory.Item {
	return inventory.Item{
		ID:         uuid.New(),
		Name:       name,
		Category:   inventory.CategoryOther,
		Quantity:   quantity,
		AddedAt:    testNow.Add(-time.Hour),
		ExpiryDate: testNow.Add(expiresIn),
		Source:     inventory.SourceManual,
	}
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (d *recordingDispatcher) Dispatch(e shared.DomainEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Register(string, shared.EventHandler) {}

func TestBuildInventoryContext(t *testing.T) {
	items := []inventory.Item{
		item("Spinach", "1 bunch", 24*time.Hour),
		item("Old Milk", "1L", -time.Hour),
		item("Rice", "2kg", 30*24*time.Hour),
		item("Yogurt", "500g", 0),
	}

	got := BuildInventoryContext(items, testNow, 72*time.Hour)
	assert.Equal(t, "Spinach (1 bunch), Rice (2kg)", got)

	assert.Equal(t, "", BuildInventoryContext(nil, testNow, 72*time.Hour))
}

func TestBuildRecommendationPrompt(t *testing.T) {
	got := BuildRecommendationPrompt("Eggs (12)", "Vegan")
	assert.Equal(t, "Inventory: [Eggs (12)]. Dietary Goal: Vegan. "+
		"Recommend 3 recipes using these ingredients to minimize waste. "+
		"Return JSON array with keys: title, ingredientsUsed, missingIngredients, instructions, sustainabilityScore.", got)
}

func TestRecommend_CommitsSuggestions(t *testing.T) {
	var prompt string
	provider := mock.NewClient(func(ctx context.Context, req outbound.ModelRequest) (string, error) {
		prompt = req.Prompt
		return mock.Canned(ctx, req)
	})
	dispatcher := &recordingDispatcher{}
	svc := NewRecommendationService(provider, Options{}, fixedClock, nil, dispatcher, zaptest.NewLogger(t))

	_, ok := svc.Latest()
	assert.False(t, ok)

	res, err := svc.Recommend(context.Background(), []inventory.Item{item("Eggs", "12", 48*time.Hour)}, "  ")
	require.NoError(t, err)
	assert.False(t, res.ParseFailed)
	assert.Len(t, res.Recipes, 3)
	assert.Equal(t, uint64(1), res.Sequence)
	assert.Contains(t, prompt, "Dietary Goal: High protein, low carb.")
	assert.Contains(t, prompt, "Inventory: [Eggs (12)]")

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, DefaultDietaryGoal, latest.Goal)
	assert.Equal(t, res.Recipes, latest.Recipes)
	assert.Equal(t, testNow, latest.GeneratedAt)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, recipe.EventSuggestionsGenerated, dispatcher.events[0].EventName())
}

func TestRecommend_EmptyContextStillPrompts(t *testing.T) {
	var prompt string
	provider := mock.NewClient(func(_ context.Context, req outbound.ModelRequest) (string, error) {
		prompt = req.Prompt
		return "[]", nil
	})
	svc := NewRecommendationService(provider, Options{}, fixedClock, nil, nil, zaptest.NewLogger(t))

	res, err := svc.Recommend(context.Background(), []inventory.Item{item("Old Milk", "1L", -time.Hour)}, "Keto")
	require.NoError(t, err)
	assert.Empty(t, res.Recipes)
	assert.Contains(t, prompt, "Inventory: []")
}

func TestRecommend_ClampsScores(t *testing.T) {
	provider := mock.NewClient(respondWith(`[{"title":"Soup","ingredientsUsed":["Leek"],"instructions":["Boil"],"sustainabilityScore":140}]`))
	svc := NewRecommendationService(provider, Options{}, fixedClock, nil, nil, zaptest.NewLogger(t))

	res, err := svc.Recommend(context.Background(), nil, "")
	require.NoError(t, err)
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, float64(100), res.Recipes[0].SustainabilityScore)
	assert.NotNil(t, res.Recipes[0].MissingIngredients)
}

func TestRecommend_ParseFailureCommitsEmptySet(t *testing.T) {
	provider := mock.NewClient(respondWith("Here are some ideas: soup, salad"))
	svc := NewRecommendationService(provider, Options{}, fixedClock, nil, nil, zaptest.NewLogger(t))

	res, err := svc.Recommend(context.Background(), []inventory.Item{item("Eggs", "12", 48*time.Hour)}, "")
	require.NoError(t, err)
	assert.True(t, res.ParseFailed)
	assert.Empty(t, res.Recipes)
	assert.Equal(t, "Here are some ideas: soup, salad", res.RawResponse)

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.True(t, latest.ParseFailed)
}

func TestRecommend_StaleResponseIsDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	provider := mock.NewClient(func(_ context.Context, req outbound.ModelRequest) (string, error) {
		if strings.Contains(req.Prompt, "Dietary Goal: first.") {
			close(firstStarted)
			<-releaseFirst
			return `[{"title":"Old","instructions":["x"],"sustainabilityScore":10}]`, nil
		}
		return `[{"title":"New","instructions":["y"],"sustainabilityScore":90}]`, nil
	})
	svc := NewRecommendationService(provider, Options{}, fixedClock, nil, nil, zaptest.NewLogger(t))

	type outcome struct {
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		_, err := svc.Recommend(context.Background(), nil, "first")
		done <- outcome{err: err}
	}()
	<-firstStarted

	res, err := svc.Recommend(context.Background(), nil, "second")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Sequence)

	close(releaseFirst)
	first := <-done
	assert.True(t, apperrors.Is(first.err, apperrors.CodeRequestSuperseded))

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(2), latest.Sequence)
	assert.Equal(t, "New", latest.Recipes[0].Title)
}

func TestRecommend_ErrorLeavesLatestUntouched(t *testing.T) {
	fail := false
	provider := mock.NewClient(func(ctx context.Context, req outbound.ModelRequest) (string, error) {
		if fail {
			return "", apperrors.NewExternalServiceError("gemini", nil)
		}
		return mock.Canned(ctx, req)
	})
	svc := NewRecommendationService(provider, Options{RetryOptions: noSleep()}, fixedClock, nil, nil, zaptest.NewLogger(t))

	_, err := svc.Recommend(context.Background(), nil, "")
	require.NoError(t, err)

	fail = true
	_, err = svc.Recommend(context.Background(), nil, "")
	assert.True(t, apperrors.Is(err, apperrors.CodeExternalServiceError))

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(1), latest.Sequence)
}
