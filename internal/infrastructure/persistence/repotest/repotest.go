// Package repotest holds behaviour tests shared by every ItemRepository implementation.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty repository for one subtest
type Factory func(t *testing.T) outbound.ItemRepository

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newItem(name string) inventory.Item {
	return inventory.Item{
		ID:         uuid.New(),
		Name:       name,
		Category:   inventory.CategoryDairy,
		Quantity:   "1 unit",
		AddedAt:    base,
		ExpiryDate: base.Add(48 * time.Hour),
		Source:     inventory.SourceManual,
	}
}

func names(items []inventory.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

// Run exercises the repository contract against repositories built by factory
func Run(t *testing.T, factory Factory) {
	t.Run("EmptyList", func(t *testing.T) {
		repo := factory(t)
		items, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, items)

		n, err := repo.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("PrependKeepsBatchOrderAheadOfExisting", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		require.NoError(t, repo.Prepend(ctx, newItem("Milk")))
		require.NoError(t, repo.Prepend(ctx, newItem("Eggs"), newItem("Butter"), newItem("Cheese")))

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Eggs", "Butter", "Cheese", "Milk"}, names(items))

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("RoundTripsFields", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		want := newItem("Paneer")
		want.Source = inventory.SourceVision

		require.NoError(t, repo.Prepend(ctx, want))
		items, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)

		got := items[0]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Category, got.Category)
		assert.Equal(t, want.Quantity, got.Quantity)
		assert.Equal(t, want.Source, got.Source)
		assert.True(t, want.AddedAt.Equal(got.AddedAt))
		assert.True(t, want.ExpiryDate.Equal(got.ExpiryDate))
	})

	t.Run("DeleteRemovesOnlyThatItem", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		a, b, c := newItem("A"), newItem("B"), newItem("C")
		require.NoError(t, repo.Prepend(ctx, a, b, c))

		removed, err := repo.Delete(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "C"}, names(items))
	})

	t.Run("DeleteUnknownIsNoop", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		require.NoError(t, repo.Prepend(ctx, newItem("A")))

		removed, err := repo.Delete(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, removed)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("ConcurrentPrepends", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, repo.Prepend(ctx, newItem("x"), newItem("y")))
			}()
		}
		wg.Wait()

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 40, n)
	})
}
