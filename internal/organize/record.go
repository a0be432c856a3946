package organize

import (
	"fmt"
	"strings"

	"feed-export/internal/textutil"
	"feed-export/internal/types"
	"feed-export/pkg/config"
)

// BuildRecord derives the display record of a sidecar. It fails when the
// upload date is missing or malformed, since every name is keyed on it.
func BuildRecord(info types.VideoInfo, username string) (types.Record, error) {
	if info.UploadDate == "" {
		return types.Record{}, ErrNoUploadDate
	}
	date, err := textutil.FormatUploadDate(info.UploadDate)
	if err != nil {
		return types.Record{}, err
	}

	title := strings.TrimSpace(info.Title)
	description := strings.TrimSpace(info.Description)
	sanitized := textutil.Sanitize(title)
	prefix := fmt.Sprintf("%s-%s - ", date, username)

	url := info.WebpageURL
	if url == "" {
		url = "(No URL)"
	}

	return types.Record{
		Title:          title,
		SanitizedTitle: sanitized,
		Description:    description,
		Hashtags:       textutil.ExtractHashtags(description),
		Stats:          info.Stats(),
		VideoURL:       url,
		UploadDate:     date,
		FolderName:     prefix + textutil.Sanitize(textutil.Truncate(sanitized, config.FolderLength)),
		FileStem:       prefix + textutil.Sanitize(textutil.Truncate(sanitized, config.FilenameLength)),
	}, nil
}

// TextFileName returns the name of the TXT sidecar of rec
func TextFileName(rec types.Record) string {
	return textutil.Sanitize(rec.FileStem + ".txt")
}

// LegacyTextFileName returns the TXT name older exports used. The cut title
// was not trimmed there, so a space at the cut stays before ".txt".
func LegacyTextFileName(rec types.Record, username string) string {
	prefix := fmt.Sprintf("%s-%s - ", rec.UploadDate, username)
	return textutil.Sanitize(prefix + textutil.Truncate(rec.SanitizedTitle, config.FilenameLength) + ".txt")
}
