package recipe

import "errors"

// Domain errors for recipe suggestions

var (
	ErrEmptyTitle       = errors.New("recipe title is required")
	ErrNoInstructions   = errors.New("recipe must have at least one instruction")
	ErrScoreOutOfRange  = errors.New("sustainability score must be between 0 and 100")
	ErrNoSuggestionsYet = errors.New("no recipe suggestions have been generated")
)
