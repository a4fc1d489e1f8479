package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmbeddedResults(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantOK     bool
		wantPrefix string
		wantParsed any
	}{
		{
			name:   "no marker",
			text:   "Query executed successfully.",
			wantOK: false,
		},
		{
			name:       "object after marker",
			text:       `Results: {"rows": [[1]]}`,
			wantOK:     true,
			wantPrefix: "",
			wantParsed: map[string]any{"rows": []any{[]any{float64(1)}}},
		},
		{
			name:       "array after marker",
			text:       `Results: [1, 2]`,
			wantOK:     true,
			wantPrefix: "",
			wantParsed: []any{float64(1), float64(2)},
		},
		{
			name:       "success phrase stripped from prefix",
			text:       `Query executed successfully. Results: {"a": 1}`,
			wantOK:     true,
			wantPrefix: "",
			wantParsed: map[string]any{"a": float64(1)},
		},
		{
			name:       "narrative prefix survives",
			text:       `Query executed successfully. Spend is up. Results: {"a": 1}`,
			wantOK:     true,
			wantPrefix: "Spend is up.",
			wantParsed: map[string]any{"a": float64(1)},
		},
		{
			name:       "whitespace before document",
			text:       "Results:   \n {\"a\": 1}",
			wantOK:     true,
			wantPrefix: "",
			wantParsed: map[string]any{"a": float64(1)},
		},
		{
			name:       "no document after marker",
			text:       "Some note. Results: none",
			wantOK:     false,
			wantPrefix: "Some note.",
		},
		{
			name:       "broken document",
			text:       `Results: {"a": }`,
			wantOK:     false,
			wantPrefix: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, prefix, ok := ExtractEmbeddedResults(tt.text)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPrefix, prefix)
			if tt.wantOK {
				assert.Equal(t, tt.wantParsed, parsed)
			}
		})
	}
}
