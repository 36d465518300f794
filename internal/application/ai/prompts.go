package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
)

// DefaultDietaryGoal is used when a recommendation request has no goal
const DefaultDietaryGoal = "High protein, low carb"

const extractionInstruction = "Extract food items, quantities, and categories. Return JSON array."

// Schemas requested from the provider
var (
	detectedItemsSchema = outbound.ArrayOf(outbound.ObjectOf(map[string]*outbound.Schema{
		"name":     outbound.Of(outbound.SchemaString),
		"quantity": outbound.Of(outbound.SchemaString),
		"category": outbound.Of(outbound.SchemaString),
	}, "name", "quantity", "category"))

	suggestionsSchema = outbound.ArrayOf(outbound.ObjectOf(map[string]*outbound.Schema{
		"title":               outbound.Of(outbound.SchemaString),
		"ingredientsUsed":     outbound.ArrayOf(outbound.Of(outbound.SchemaString)),
		"missingIngredients":  outbound.ArrayOf(outbound.Of(outbound.SchemaString)),
		"instructions":        outbound.ArrayOf(outbound.Of(outbound.SchemaString)),
		"sustainabilityScore": outbound.Of(outbound.SchemaNumber),
	}, "title", "ingredientsUsed", "missingIngredients", "instructions", "sustainabilityScore"))
)

// BuildInventoryContext renders the usable inventory as "name (quantity)"
// entries joined by ", ". Items already expired at now are left out.
func BuildInventoryContext(items []inventory.Item, now time.Time, window time.Duration) string {
	entries := make([]string, 0, len(items))
	for _, item := range items {
		if item.StatusAt(now, window) == inventory.StatusExpired {
			continue
		}
		entries = append(entries, fmt.Sprintf("%s (%s)", item.Name, item.Quantity))
	}
	return strings.Join(entries, ", ")
}

// BuildRecommendationPrompt embeds the inventory context and dietary goal
func BuildRecommendationPrompt(inventoryContext, goal string) string {
	return fmt.Sprintf("Inventory: [%s]. Dietary Goal: %s. "+
		"Recommend 3 recipes using these ingredients to minimize waste. "+
		"Return JSON array with keys: title, ingredientsUsed, missingIngredients, instructions, sustainabilityScore.",
		inventoryContext, goal)
}
