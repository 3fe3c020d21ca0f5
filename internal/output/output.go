// Package output persists the one canonical lyric artifact of a run.
package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/forPelevin/lyricsmith/internal/types"
)

const maxCollisions = 1000

type Selector struct {
	Dir string
	Now func() time.Time
}

func New(dir string) *Selector {
	return &Selector{Dir: dir, Now: time.Now}
}

// Save writes doc as {mode}_{YYYYMMDD_HHMMSS}.txt under Dir and returns the
// path. Existing files are never overwritten; a numeric suffix is added on
// collision.
func (s *Selector) Save(doc types.Document) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	base := ArtifactName(doc.Mode, now())
	body := []byte(doc.String())
	for i := 1; i <= maxCollisions; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		path := filepath.Join(dir, name+".txt")
		err := writeExclusive(path, body)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("save %s: too many artifacts named %s", doc.Mode, base)
}

// ArtifactName is the extension-less artifact name for mode captured at t.
func ArtifactName(mode types.OutputMode, t time.Time) string {
	return mode.String() + "_" + t.Format("20060102_150405")
}

var writeFile = (*os.File).Write

// writeExclusive creates path and writes b to it. A failed write removes the
// file so no partial artifact is left behind.
func writeExclusive(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := writeFile(f, b); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
