package ports

import (
	"context"
	"errors"
	"time"

	"github.com/forPelevin/lyricsmith/internal/types"
)

var (
	// ErrSeparation marks a failed vocal separation.
	ErrSeparation = errors.New("vocal separation failed")
	// ErrTranscription marks audio that could not be decoded or a speech
	// model that could not run.
	ErrTranscription = errors.New("transcription failed")
)

type VocalSeparator interface {
	// Separate writes stems under outDir and returns the vocal stem path.
	Separate(ctx context.Context, audioPath, outDir string) (string, error)
}

type AudioTool interface {
	ToMono16k(ctx context.Context, inAudio, outWav string) error
}

type WavProbe interface {
	Probe(wavPath string) (time.Duration, error)
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

// TextCleaner improves an already formatted lyric document. Implementations
// keep line count, order and labels.
type TextCleaner interface {
	Name() string
	Clean(ctx context.Context, doc types.Document) (types.Document, error)
}

type TagReader interface {
	ReadTags(path string) (types.SongInfo, error)
}
