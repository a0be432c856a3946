package download

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	ffmpeg_go "github.com/u2takey/ffmpeg-go"
)

// FFmpegRemuxer copies the streams of a media file into an mp4 container
// without re-encoding
type FFmpegRemuxer struct{}

// Remux writes src into dst as mp4
func (FFmpegRemuxer) Remux(ctx context.Context, src, dst string) error {
	logrus.WithFields(logrus.Fields{
		"src": src,
		"dst": dst,
	}).Info("Remuxing to mp4")

	var stderr bytes.Buffer
	err := ffmpeg_go.OutputContext(ctx, []*ffmpeg_go.Stream{ffmpeg_go.Input(src)}, dst,
		ffmpeg_go.KwArgs{
			"c":        "copy",
			"movflags": "+faststart",
		}).
		WithErrorOutput(&stderr).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg remux of %s failed: %w: %s", src, err, lastLine(stderr.String()))
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
