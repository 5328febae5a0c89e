package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
)

// Converter transcodes uploaded audio into the canonical ASR input format
// 16 kHz, mono, 16-bit PCM wav
type Converter struct {
	FFmpegBin string
}

// NewConverter creates converter instance
func NewConverter(ffmpegBin string) (*Converter, error) {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpegBin); err != nil {
		return nil, fmt.Errorf("ffmpeg binary not found: %w", err)
	}
	return &Converter{FFmpegBin: ffmpegBin}, nil
}

// ToWav converts the file and returns the temp wav path with a cleanup func.
// cleanup must be called regardless of how the provider call went
func (c *Converter) ToWav(ctx context.Context, inputPath string) (string, func(), error) {
	out, err := os.CreateTemp("", "audiary-*.wav")
	if err != nil {
		return "", func() {}, fmt.Errorf("can't create temp file: %w", err)
	}
	outPath := out.Name()
	_ = out.Close()
	cleanup := func() {
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			goapp.Log.Warn().Err(err).Str("file", outPath).Msg("can't drop temp wav")
		}
	}

	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outPath,
	}
	cmd := exec.CommandContext(ctx, c.FFmpegBin, args...)
	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("running ffmpeg: %w: %s", err, tail(output.String(), 500))
	}
	return outPath, cleanup, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
