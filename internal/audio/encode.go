package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/quillcast/quillcast/internal/logging"
)

// DefaultBitrate is the MP3 bitrate used when none is configured.
const DefaultBitrate = "192k"

// FFmpegAvailable reports whether the ffmpeg binary is on PATH. Conversion
// runs that produce MP3 check this up front instead of failing on the first
// chapter.
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// EncodeMP3 converts the WAV file at wavPath into an MP3 at mp3Path with
// ffmpeg. bitrate is passed to -ab, e.g. "192k".
func EncodeMP3(ctx context.Context, wavPath, mp3Path, bitrate string) error {
	if bitrate == "" {
		bitrate = DefaultBitrate
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", wavPath, "-ab", bitrate, mp3Path)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	logging.Debugf("[audio] %s", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed for %s: %w: %s", mp3Path, err, tailString(stderr.String(), 500))
	}
	return nil
}

// tailString keeps the last maxLen bytes of s, where ffmpeg puts the reason
// it failed.
func tailString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return "(truncated) ..." + s[len(s)-maxLen:]
}
