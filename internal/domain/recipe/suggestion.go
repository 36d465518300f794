// Package recipe models the recipe suggestions returned for the current inventory.
package recipe

import (
	"math"
	"strings"
	"time"
)

// Score bounds for the sustainability score
const (
	MinSustainabilityScore = 0
	MaxSustainabilityScore = 100
)

// Suggestion is a single recipe proposed by the model. Suggestions are
// ephemeral: each request replaces the whole set.
type Suggestion struct {
	Title               string   `json:"title"`
	IngredientsUsed     []string `json:"ingredientsUsed"`
	MissingIngredients  []string `json:"missingIngredients"`
	Instructions        []string `json:"instructions"`
	SustainabilityScore float64  `json:"sustainabilityScore"`
}

// Normalize trims text fields, replaces nil lists with empty ones and clamps
// the score into range.
func (s Suggestion) Normalize() Suggestion {
	s.Title = strings.TrimSpace(s.Title)
	s.IngredientsUsed = cleanList(s.IngredientsUsed)
	s.MissingIngredients = cleanList(s.MissingIngredients)
	s.Instructions = cleanList(s.Instructions)
	s.SustainabilityScore = ClampScore(s.SustainabilityScore)
	return s
}

// Validate reports whether the suggestion is usable as-is
func (s Suggestion) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if len(s.Instructions) == 0 {
		return ErrNoInstructions
	}
	if s.SustainabilityScore < MinSustainabilityScore || s.SustainabilityScore > MaxSustainabilityScore {
		return ErrScoreOutOfRange
	}
	return nil
}

// ClampScore forces a score into [0, 100]; NaN becomes 0
func ClampScore(score float64) float64 {
	if math.IsNaN(score) {
		return MinSustainabilityScore
	}
	return math.Max(MinSustainabilityScore, math.Min(MaxSustainabilityScore, score))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SuggestionSet is a committed group of suggestions for one request
type SuggestionSet struct {
	Sequence    uint64       `json:"sequence"`
	Goal        string       `json:"goal"`
	Recipes     []Suggestion `json:"recipes"`
	ParseFailed bool         `json:"parse_error"`
	GeneratedAt time.Time    `json:"generatedAt"`
}
