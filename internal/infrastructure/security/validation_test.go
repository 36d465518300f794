package security

import (
	"strings"
	"testing"

	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=10,no_xss"`
	Notes string `json:"notes" validate:"no_xss"`
}

func TestValidateStruct(t *testing.T) {
	v := NewValidationService(zap.NewNop())

	assert.NoError(t, v.ValidateStruct(sample{Name: "Milk"}))

	err := v.ValidateStruct(sample{Name: "", Notes: `<img onerror="x">`})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	details := appErr.Metadata["validation_errors"].(apperrors.ValidationErrors)
	require.Len(t, details, 2)
	assert.Equal(t, "name", details[0].Field)
	assert.Equal(t, "name is required", details[0].Message)
	assert.Equal(t, "notes", details[1].Field)
	assert.Equal(t, "no_xss", details[1].Tag)

	err = v.ValidateStruct(sample{Name: strings.Repeat("a", 11)})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))
}

func TestSanitizeText(t *testing.T) {
	v := NewValidationService(zap.NewNop())

	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"trims and collapses", "  Red \t  Onions\n", 0, "Red Onions"},
		{"strips tags", "<b>Tofu</b>", 0, "Tofu"},
		{"drops scripts", "Milk<script>alert(1)</script>", 0, "Milk"},
		{"unescapes entities", "Mac &amp; Cheese", 0, "Mac & Cheese"},
		{"drops encoded scripts", "Milk&lt;script&gt;alert(1)&lt;/script&gt;", 0, "Milk"},
		{"strips encoded tags", "&lt;b&gt;Tofu&lt;/b&gt;", 0, "Tofu"},
		{"truncates runes", "Jalapeño peppers", 8, "Jalapeño"},
		{"empty", "   ", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.SanitizeText(tt.input, tt.max))
		})
	}
}
