package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateByRunes(t *testing.T) {
	assert.Equal(t, "あい", TruncateByRunes("あいう", 2))
	assert.Equal(t, "abc", TruncateByRunes("abc", 10))
	assert.Equal(t, "", TruncateByRunes("abc", 0))
}

func TestTailByRunes(t *testing.T) {
	assert.Equal(t, "いう", TailByRunes("あいう", 2))
	assert.Equal(t, "abc", TailByRunes("abc", 3))
	assert.Equal(t, "", TailByRunes("abc", 0))
}

func TestIsResponseFormatUnsupportedError(t *testing.T) {
	assert.False(t, IsResponseFormatUnsupportedError(nil))
	assert.True(t, IsResponseFormatUnsupportedError(errString("400: response_format is not supported")))
	assert.False(t, IsResponseFormatUnsupportedError(errString("rate limited")))
}

type errString string

func (e errString) Error() string { return string(e) }
