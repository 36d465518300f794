package recipe

import "time"

// EventSuggestionsGenerated is published when a suggestion set is committed
const EventSuggestionsGenerated = "recipe.suggestions_generated"

// SuggestionsGeneratedEvent is raised when a newer suggestion set replaces the current one
type SuggestionsGeneratedEvent struct {
	Sequence    uint64    `json:"sequence"`
	Goal        string    `json:"goal"`
	Count       int       `json:"count"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func (e SuggestionsGeneratedEvent) EventName() string {
	return EventSuggestionsGenerated
}

func (e SuggestionsGeneratedEvent) OccurredAt() time.Time {
	return e.GeneratedAt
}
