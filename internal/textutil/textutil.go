// Package textutil holds the string helpers used to derive folder names,
// file names and hashtag lists from sidecar metadata.
package textutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// InvalidChars are the runes removed from anything used as a path element.
const InvalidChars = `\/:*?"<>|`

// NoHashtags is rendered in place of the hashtag line when there is no
// description at all.
const NoHashtags = "(No hashtags)"

const (
	uploadDateLayout  = "20060102"
	displayDateLayout = "2006-01-02"
)

var hashtagRe = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// Sanitize removes invalid filesystem characters and trims surrounding
// whitespace.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(InvalidChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Truncate keeps at most n runes of the NFC form of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	s = norm.NFC.String(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ExtractHashtags returns every "#word" token of s in order of appearance.
func ExtractHashtags(s string) []string {
	if s == "" {
		return nil
	}
	return hashtagRe.FindAllString(s, -1)
}

// FormatHashtags joins the tags of description with spaces. A description
// without any tag gives an empty line.
func FormatHashtags(description string, tags []string) string {
	if description == "" {
		return NoHashtags
	}
	return strings.Join(tags, " ")
}

// FormatUploadDate converts a yt-dlp YYYYMMDD date to YYYY-MM-DD.
func FormatUploadDate(raw string) (string, error) {
	t, err := time.Parse(uploadDateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("invalid upload date %q: %w", raw, err)
	}
	return t.Format(displayDateLayout), nil
}

// ParseDisplayDate validates a YYYY-MM-DD date.
func ParseDisplayDate(s string) (time.Time, error) {
	t, err := time.Parse(displayDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// CompactDate converts a YYYY-MM-DD date to the YYYYMMDD form yt-dlp expects.
func CompactDate(s string) (string, error) {
	t, err := ParseDisplayDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(uploadDateLayout), nil
}

// DisplayDate formats t as YYYY-MM-DD.
func DisplayDate(t time.Time) string {
	return t.Format(displayDateLayout)
}
