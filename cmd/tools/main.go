// Command tools installs the external binaries feed-export drives: yt-dlp,
// and ffmpeg/ffprobe for remuxing.
package main

import (
	"context"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	logrus.Info("Installing yt-dlp, ffmpeg and ffprobe...")

	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to install yt-dlp")
	}
	logrus.WithField("executable", resolved.Executable).Info("yt-dlp ready")

	ytdlp.MustInstallFFmpeg(ctx, nil)
	ytdlp.MustInstallFFprobe(ctx, nil)

	logrus.Info("Tools installed successfully")
}
