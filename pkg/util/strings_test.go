package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 8000, ParseIntDefault("", 8000))
	assert.Equal(t, 9000, ParseIntDefault("9000", 8000))
	assert.Equal(t, 9000, ParseIntDefault(" 9000 ", 8000))
	assert.Equal(t, 8000, ParseIntDefault("abc", 8000))
}

func TestParseBoolDefault(t *testing.T) {
	assert.True(t, ParseBoolDefault("", true))
	assert.True(t, ParseBoolDefault("true", false))
	assert.False(t, ParseBoolDefault("0", true))
	assert.False(t, ParseBoolDefault("maybe", false))
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, SplitCSV(" http://a , ,http://b,"))
	assert.Empty(t, SplitCSV(""))
	assert.Equal(t, []string{"*"}, SplitCSV("*"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
	assert.Equal(t, "ab", Truncate("ab", -1))
}
