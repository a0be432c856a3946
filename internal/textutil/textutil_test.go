package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"all invalid", `\/:*?"<>|`, ""},
		{"mixed", `a/b\c:d*e?f"g<h>i|j`, "abcdefghij"},
		{"trims", "  spaced out \t", "spaced out"},
		{"trims after removal", ` ? title ? `, "title"},
		{"unicode kept", "café ☕ 日本", "café ☕ 日本"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello world", 5))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "日本語", Truncate("日本語のタイトル", 3))
	// decomposed e + combining acute is composed before counting
	assert.Equal(t, "caf\u00e9", Truncate("cafe\u0301 au lait", 4))
}

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"none", "no tags here", []string{}},
		{"empty", "", nil},
		{"several", "fun day #fyp #dance_challenge and #2024", []string{"#fyp", "#dance_challenge", "#2024"}},
		{"adjacent", "#one#two", []string{"#one", "#two"}},
		{"lone hash", "# not a tag", []string{}},
		{"unicode", "#café #日本", []string{"#café", "#日本"}},
		{"punctuation stops tag", "#tag! #other.", []string{"#tag", "#other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractHashtags(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatHashtags(t *testing.T) {
	assert.Equal(t, NoHashtags, FormatHashtags("", nil))
	assert.Equal(t, "", FormatHashtags("no tags here", nil))
	assert.Equal(t, "#a #b", FormatHashtags("x #a #b", []string{"#a", "#b"}))
}

func TestFormatUploadDate(t *testing.T) {
	got, err := FormatUploadDate("20240315")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got)

	_, err = FormatUploadDate("2024-03-15")
	require.Error(t, err)

	_, err = FormatUploadDate("")
	require.Error(t, err)
}

func TestCompactDate(t *testing.T) {
	got, err := CompactDate("2023-01-31")
	require.NoError(t, err)
	assert.Equal(t, "20230131", got)

	_, err = CompactDate("2023-02-30")
	require.Error(t, err)

	_, err = CompactDate("31/01/2023")
	require.Error(t, err)
}

func TestPropertySanitizeRemovesInvalidChars(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.String().Draw(t, "in")
		out := Sanitize(in)
		if strings.ContainsAny(out, InvalidChars) {
			t.Fatalf("Sanitize(%q) = %q still contains invalid characters", in, out)
		}
		if strings.TrimSpace(out) != out {
			t.Fatalf("Sanitize(%q) = %q is not trimmed", in, out)
		}
	})
}

func TestPropertySanitizeIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.String().Draw(t, "in")
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	})
}

func TestPropertyTruncateBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.String().Draw(t, "in")
		n := rapid.IntRange(0, 80).Draw(t, "n")
		out := Truncate(in, n)
		if utf8.RuneCountInString(out) > n {
			t.Fatalf("Truncate(%q, %d) = %q has %d runes", in, n, out, utf8.RuneCountInString(out))
		}
	})
}

func TestPropertyHashtagsWellFormed(t *testing.T) {
	chars := []rune("abcXYZ019_ #!.,é日\n")
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.StringOfN(rapid.SampledFrom(chars), 0, 60, -1).Draw(t, "in")
		for _, tag := range ExtractHashtags(in) {
			if !strings.HasPrefix(tag, "#") || utf8.RuneCountInString(tag) < 2 {
				t.Fatalf("malformed tag %q from %q", tag, in)
			}
			if !strings.Contains(in, tag) {
				t.Fatalf("tag %q not found in %q", tag, in)
			}
			if strings.ContainsAny(tag[1:], "# !.,\n") {
				t.Fatalf("tag %q contains a separator", tag)
			}
		}
	})
}
