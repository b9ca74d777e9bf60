package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUID(t *testing.T) {
	t.Run("default length", func(t *testing.T) {
		uid := GenerateUID(5)
		assert.Len(t, uid, 5)
	})

	t.Run("only alphanumeric characters", func(t *testing.T) {
		uid := GenerateUID(64)
		for _, r := range uid {
			assert.Contains(t, uidAlphabet, string(r))
		}
	})

	t.Run("non-positive length falls back to 5", func(t *testing.T) {
		assert.Len(t, GenerateUID(0), 5)
		assert.Len(t, GenerateUID(-3), 5)
	})

	t.Run("successive ids differ", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			seen[GenerateUID(8)] = true
		}
		// Collisions at length 8 over 100 draws would indicate a broken
		// random source.
		assert.Greater(t, len(seen), 99)
	})
}

func TestGenerateTransferID(t *testing.T) {
	id := GenerateTransferID("doc.pdf")
	assert.True(t, strings.HasPrefix(id, "doc.pdf-"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "pikachu", SanitizeString("  pika\x00chu\n"))
	assert.Equal(t, "", SanitizeString("\t\r\n"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijk", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", FormatFileSize(0))
	assert.Equal(t, "512 Bytes", FormatFileSize(512))
	assert.Equal(t, "1.00 KB", FormatFileSize(1024))
	assert.Equal(t, "1.50 MB", FormatFileSize(1536*1024))
	assert.Equal(t, "5.00 GB", FormatFileSize(5<<30))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.False(t, IsEmpty("x"))
}
