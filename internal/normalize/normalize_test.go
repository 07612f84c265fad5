package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"docqa/internal/models"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	in := "  hello\tworld\r\nand\f\fmore   spaces  "
	assert.Equal(t, "hello world and more spaces", Normalize(in))
}

func TestNormalizeRemovesControlChars(t *testing.T) {
	in := "a\x00b\x1fc"
	assert.Equal(t, "a b c", Normalize(in))
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize(" \n\t "))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := "line one\nline  two\ttabbed"
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}

func TestTooShort(t *testing.T) {
	assert.True(t, TooShort("x", models.MinPageChars))
	assert.True(t, TooShort(strings.Repeat("a", models.MinPageChars-1), models.MinPageChars))
	assert.False(t, TooShort(strings.Repeat("a", models.MinPageChars), models.MinPageChars))
}
