package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/forPelevin/lyricsmith/internal/ports"
)

type Adapter struct {
	ffmpeg string
}

func New(ffmpegPath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{ffmpeg: ffmpegPath}
}

// ToMono16k decodes any input ffmpeg understands into the 16 kHz mono PCM WAV
// whisper.cpp expects.
func (a *Adapter) ToMono16k(ctx context.Context, inAudio, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inAudio,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: ffmpeg convert audio: %w\n%s", ports.ErrTranscription, err, string(b))
	}
	return nil
}
