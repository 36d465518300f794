package memory

import (
	"context"
	"testing"

	"github.com/rasoiops/rasoiops/internal/infrastructure/persistence/repotest"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
)

func TestItemRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) outbound.ItemRepository {
		return NewItemRepository()
	})
}

func TestItemRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewItemRepository()
	_, err := repo.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
