package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Items []string `json:"items"`
}

func (p payload) Validate() error {
	if len(p.Items) == 0 {
		return errors.New("items is empty")
	}
	return nil
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n<p>hi</p>\n```", "<p>hi</p>"},
		{"html fence", "  ```html\n<h2>x</h2>\n```  ", "<h2>x</h2>"},
		{"single line fence", "```{\"a\":1}```", `{"a":1}`},
		{"whitespace", "\n\n  text \n", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("fenced with prose", func(t *testing.T) {
		r := DecodeJSON[payload]("Here you go:\n```json\n{\"items\":[\"a\",\"b\"]}\n```")
		v, ok := r.Get()
		require.True(t, ok, r.Reason())
		assert.Equal(t, []string{"a", "b"}, v.Items)
		assert.Empty(t, r.Reason())
	})

	t.Run("garbage", func(t *testing.T) {
		r := DecodeJSON[payload]("I cannot help with that.")
		assert.False(t, r.OK())
		assert.Contains(t, r.Reason(), "invalid JSON")
	})

	t.Run("wrong shape", func(t *testing.T) {
		r := DecodeJSON[payload](`{"items":[]}`)
		assert.False(t, r.OK())
		assert.Contains(t, r.Reason(), "items is empty")
	})

	t.Run("empty", func(t *testing.T) {
		r := DecodeJSON[payload]("   ")
		assert.False(t, r.OK())
		assert.Equal(t, "empty response", r.Reason())
	})
}

func TestDecodeHTML(t *testing.T) {
	r := DecodeHTML("```html\n<h2>Overview</h2><p>Quiet week.</p>\n```")
	html, ok := r.Get()
	require.True(t, ok)
	assert.Equal(t, "<h2>Overview</h2><p>Quiet week.</p>", html)

	assert.False(t, DecodeHTML("").OK())
	assert.Equal(t, "response contains no markup", DecodeHTML("just words").Reason())
}
