//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/rasoiops/rasoiops/internal/infrastructure/persistence/repotest"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/rasoiops/rasoiops/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestItemRepository_Integration(t *testing.T) {
	tr := testutils.SetupTestRedis(t)

	repotest.Run(t, func(t *testing.T) outbound.ItemRepository {
		tr.Flush(t)
		return NewItemRepository(tr.Client, "test:", zaptest.NewLogger(t))
	})
}

func TestItemRepository_SharedBetweenInstances(t *testing.T) {
	tr := testutils.SetupTestRedis(t)
	ctx := context.Background()

	writer := NewItemRepository(tr.Client, "shared:", zaptest.NewLogger(t))
	reader := NewItemRepository(tr.Client, "shared:", zaptest.NewLogger(t))

	item := testutils.NewItemBuilder().WithName("Ghee").Build()
	require.NoError(t, writer.Prepend(ctx, item))

	items, err := reader.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.NoError(t, reader.Ping(ctx))
}
