package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type verdict struct {
		Score string `json:"score"`
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"score":"yes"}`, "yes"},
		{"fenced", "```json\n{\"score\": \"no\"}\n```", "no"},
		{"prose", `Sure! Here is my grade: {"score": "YES"} hope that helps`, "YES"},
		{"braces in string", `{"score":"yes","note":"a } inside"}`, "yes"},
		{"nested", `{"score":"no","meta":{"k":1}}`, "no"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v verdict
			require.NoError(t, DecodeJSON(tt.in, &v))
			assert.Equal(t, tt.want, v.Score)
		})
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	var v map[string]any
	for _, in := range []string{"", "yes", `{"score": "yes"`, `{score: yes}`} {
		err := DecodeJSON(in, &v)
		assert.ErrorIs(t, err, ErrMalformedJSON, in)
	}
}
