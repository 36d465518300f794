package jsonspan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func TestDecodeArray(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []item
		wantErr error
	}{
		{
			name: "bare array",
			text: `[{"name":"Milk"},{"name":"Eggs"}]`,
			want: []item{{Name: "Milk"}, {Name: "Eggs"}},
		},
		{
			name: "surrounded by commentary",
			text: "Sure! Here is what I found:\n```json\n[{\"name\":\"Milk\"}]\n```\nLet me know.",
			want: []item{{Name: "Milk"}},
		},
		{
			name: "empty array",
			text: `[]`,
			want: []item{},
		},
		{
			name:    "no span",
			text:    "I could not see any food in this picture.",
			wantErr: ErrNoSpan,
		},
		{
			name:    "closing before opening",
			text:    "] nothing [",
			wantErr: ErrNoSpan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeArray[item](tt.text)
			if tt.wantErr != nil {
				var perr *ParseError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, tt.text, perr.Raw)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeArray_InvalidJSON(t *testing.T) {
	got, err := DecodeArray[item](`[{"name": "Milk",}]`)

	assert.Nil(t, got)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.NotErrorIs(t, err, ErrNoSpan)
	assert.Contains(t, perr.Error(), "unparsable model response")
}

func TestObjectSpan(t *testing.T) {
	span, ok := ObjectSpan(`prefix {"a": {"b": 1}} suffix`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, span)

	_, ok = ObjectSpan("none")
	assert.False(t, ok)
}
