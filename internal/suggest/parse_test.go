package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n[1, 2]\n```", "[1, 2]"},
		{"generic fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare", `[1, 2]`, "[1, 2]"},
		{"surrounding whitespace", "  \n```json\n[]\n```\n  ", "[]"},
		{"fence only at start", "```json\n[1]", "```json\n[1]"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestDecodeList(t *testing.T) {
	var out []map[string]any
	require.NoError(t, decodeList("```json\n[{\"a\": 1}]\n```", &out))
	require.Len(t, out, 1)
	assert.Equal(t, float64(1), out[0]["a"])
}

func TestDecodeListRejectsObject(t *testing.T) {
	var out []map[string]any
	err := decodeList(`{"a": 1}`, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a JSON array")
}

func TestDecodeListRejectsInvalidJSON(t *testing.T) {
	var out []map[string]any
	err := decodeList("[{\"a\": }]", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON response from AI")
}
