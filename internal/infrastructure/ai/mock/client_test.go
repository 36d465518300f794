package mock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanned_Image(t *testing.T) {
	client := NewClient(nil)

	resp, err := client.Generate(context.Background(), outbound.ModelRequest{
		Prompt: "Extract food",
		Images: []outbound.ImagePart{{MIMEType: "image/jpeg", Data: []byte{1}}},
	})

	require.NoError(t, err)
	var items []map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Text), &items))
	assert.Len(t, items, 3)
	assert.Equal(t, int64(1), client.Calls())
}

func TestCanned_RecipesUseInventory(t *testing.T) {
	client := NewClient(nil)

	resp, err := client.Generate(context.Background(), outbound.ModelRequest{
		Prompt: "Inventory: [Whole Milk (1L), Chicken Breast (1kg)]. Dietary Goal: x.",
	})

	require.NoError(t, err)
	var recipes []struct {
		Title           string   `json:"title"`
		IngredientsUsed []string `json:"ingredientsUsed"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Text), &recipes))
	require.Len(t, recipes, 3)
	assert.Equal(t, []string{"Whole Milk", "Chicken Breast"}, recipes[0].IngredientsUsed)
}

func TestCustomResponder(t *testing.T) {
	boom := errors.New("boom")
	client := NewClient(func(ctx context.Context, req outbound.ModelRequest) (string, error) {
		return "", boom
	})

	_, err := client.Generate(context.Background(), outbound.ModelRequest{})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestInventoryNames_Empty(t *testing.T) {
	assert.Empty(t, inventoryNames("Inventory: []. Dietary Goal: x."))
	assert.Empty(t, inventoryNames("no inventory here"))
}
