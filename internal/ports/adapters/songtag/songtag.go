// Package songtag reads title, artist and album from audio file tags.
package songtag

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"

	"github.com/forPelevin/lyricsmith/internal/types"
)

type Reader struct{}

func New() Reader { return Reader{} }

// ReadTags returns an empty SongInfo for files without tags.
func (Reader) ReadTags(path string) (types.SongInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.SongInfo{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return types.SongInfo{}, nil
	}
	if err != nil {
		return types.SongInfo{}, fmt.Errorf("read tags: %w", err)
	}
	return types.SongInfo{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}, nil
}
