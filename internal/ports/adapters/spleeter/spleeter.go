// Package spleeter isolates the vocal stem with the spleeter CLI.
package spleeter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/lyricsmith/internal/ports"
)

const model = "spleeter:2stems"

type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "spleeter"
	}
	return &Adapter{bin: binPath}
}

// Separate runs the two stem model. spleeter writes
// outDir/<input base name>/vocals.wav.
func (a *Adapter) Separate(ctx context.Context, audioPath, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ports.ErrSeparation, err)
	}
	cmd := exec.CommandContext(ctx, a.bin, "separate", "-p", model, "-o", outDir, audioPath)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: spleeter: %w\n%s", ports.ErrSeparation, err, string(b))
	}
	vocals := VocalsPath(audioPath, outDir)
	if _, err := os.Stat(vocals); err != nil {
		return "", fmt.Errorf("%w: vocal stem missing: %w", ports.ErrSeparation, err)
	}
	return vocals, nil
}

func VocalsPath(audioPath, outDir string) string {
	base := filepath.Base(audioPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, base, "vocals.wav")
}
