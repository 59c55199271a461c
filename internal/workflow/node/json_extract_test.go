package node

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "surrounding prose", in: "結果です:\n{\"a\":1}\n以上", want: `{"a":1}`},
		{name: "code fence", in: "```json\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`},
		{name: "first of two objects", in: `{"a":1} {"b":2}`, want: `{"a":1}`},
		{name: "braces inside strings", in: `x {"t":"} {","u":"\"}"} y`, want: `{"t":"} {","u":"\"}"}`},
		{name: "no object", in: "  no json here ", want: "no json here"},
		{name: "unbalanced", in: `{"a":1`, want: `{"a":1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}

func TestExtractJSONObjectDecodes(t *testing.T) {
	out := ExtractJSONObject("Here is the book:\n{\"chapters\":[{\"title\":\"序章\",\"content\":\"本文{注}\"}]}\nThanks!")

	var v struct {
		Chapters []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"chapters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Len(t, v.Chapters, 1)
	assert.Equal(t, "本文{注}", v.Chapters[0].Content)
}
