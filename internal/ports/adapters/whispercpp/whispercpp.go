package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/lyricsmith/internal/ports"
	"github.com/forPelevin/lyricsmith/internal/types"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

// New returns a whisper.cpp runner. An empty language lets the model detect it.
func New(binPath, modelPath, language string) *Adapter {
	if binPath == "" {
		binPath = "whisper-cli"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language}
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(cacheDir, "whisper")
	lang := a.language
	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", lang,
		"-oj",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("%w: whisper.cpp: %w\n%s", ports.ErrTranscription, err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, fmt.Errorf("%w: %w", ports.ErrTranscription, err)
	}
	tr, err := Parse(jb)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("%w: %w", ports.ErrTranscription, err)
	}
	if tr.Language == "" {
		tr.Language = a.language
	}
	return tr, nil
}

type output struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Parse reads the JSON file whisper.cpp writes with -oj. Offsets are
// milliseconds; segment text keeps its order and loses surrounding spaces.
func Parse(b []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper json: %w", err)
	}
	tr := types.Transcript{
		Language: out.Result.Language,
		Segments: make([]types.Segment, 0, len(out.Transcription)),
	}
	for _, s := range out.Transcription {
		seg := types.Segment{
			Start: float64(s.Offsets.From) / 1000,
			End:   float64(s.Offsets.To) / 1000,
			Text:  strings.TrimSpace(s.Text),
		}
		tr.Segments = append(tr.Segments, seg)
		if seg.End > tr.Duration {
			tr.Duration = seg.End
		}
	}
	return tr, nil
}
