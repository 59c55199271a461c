package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeasure(t *testing.T) {
	assert.Equal(t, Metrics{}, Measure(""))
	assert.Equal(t, Metrics{CharCount: 4}, Measure("   \n"))

	m := Measure("One two three. Four five!")
	assert.Equal(t, 25, m.CharCount)
	assert.Equal(t, 5, m.WordCount)
	assert.Equal(t, 95, m.ReadabilityScore)

	m = Measure("日本語の文章です。二つ目の文。")
	assert.Equal(t, 15, m.CharCount)
	assert.Equal(t, 1, m.WordCount)
	assert.Equal(t, 99, m.ReadabilityScore)
}

func TestReadabilityIsClamped(t *testing.T) {
	long := strings.Repeat("word ", 80) + "."
	assert.Equal(t, 0, Measure(long).ReadabilityScore)

	noTerminator := strings.Repeat("w ", 10)
	assert.Equal(t, 80, Measure(noTerminator).ReadabilityScore)
}
