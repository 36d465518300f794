package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	appai "github.com/rasoiops/rasoiops/internal/application/ai"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/spf13/cobra"
)

var (
	suggestGoal  string
	suggestItems string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest recipes for a list of items and print them as JSON",
	Example: `  rasoiops suggest --goal "High Protein" --items "Milk (1L),Eggs (12),Spinach"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newOneShot()
		if err != nil {
			return err
		}
		defer app.logger.Sync() //nolint:errcheck

		settings := app.live.Settings()
		items, err := parseItems(suggestItems, time.Now(), settings.DefaultShelfLife)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.Server.RequestTimeout)
		defer cancel()

		window := func() time.Duration { return settings.ExpiringSoonWindow }
		result, err := appai.NewRecommendationService(app.provider, app.opts, nil, window, nil, app.logger).
			Recommend(ctx, items, suggestGoal)
		if err != nil {
			return err
		}
		if result.ParseFailed {
			app.logger.Warn("Model output could not be read as recipes")
		}

		return printJSON(cmd, result.Recipes)
	},
}

func init() {
	suggestCmd.Flags().StringVar(&suggestGoal, "goal", appai.DefaultDietaryGoal, "dietary goal")
	suggestCmd.Flags().StringVar(&suggestItems, "items", "", `comma separated items, each "Name" or "Name (quantity)"`)
	_ = suggestCmd.MarkFlagRequired("items")
}

// parseItems turns "Milk (1L),Eggs (12)" into items that expire after shelfLife
func parseItems(raw string, now time.Time, shelfLife time.Duration) ([]inventory.Item, error) {
	if shelfLife <= 0 {
		shelfLife = inventory.DefaultShelfLife
	}

	var items []inventory.Item
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, quantity := entry, ""
		if open := strings.LastIndex(entry, "("); open > 0 && strings.HasSuffix(entry, ")") {
			name = strings.TrimSpace(entry[:open])
			quantity = strings.TrimSpace(entry[open+1 : len(entry)-1])
		}

		item, err := inventory.NewItem(name, "", quantity, now, now.Add(shelfLife), inventory.SourceManual)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", entry, err)
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no items given")
	}
	return items, nil
}
