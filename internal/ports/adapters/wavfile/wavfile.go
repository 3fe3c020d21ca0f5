// Package wavfile checks converted audio before it reaches the speech model.
package wavfile

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/forPelevin/lyricsmith/internal/ports"
)

const wantRate = 16000

type Probe struct{}

func New() Probe { return Probe{} }

// Probe returns the duration of a 16 kHz mono WAV file.
func (Probe) Probe(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ports.ErrTranscription, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%w: %s is not a valid wav file", ports.ErrTranscription, path)
	}
	if d.SampleRate != wantRate || d.NumChans != 1 {
		return 0, fmt.Errorf("%w: %s is %d Hz with %d channels, want %d Hz mono",
			ports.ErrTranscription, path, d.SampleRate, d.NumChans, wantRate)
	}
	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("%w: wav duration: %w", ports.ErrTranscription, err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("%w: %s holds no audio", ports.ErrTranscription, path)
	}
	return dur, nil
}
