package types

import (
	"fmt"
	"strings"
	"unicode"
)

type Transcript struct {
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments"`
}

// SongInfo is what the audio file's own tags say about the song.
type SongInfo struct {
	Title  string
	Artist string
	Album  string
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Label renders the segment bounds the way lyric lines carry them.
func (s Segment) Label() string {
	return fmt.Sprintf("[%.2f-%.2f]", s.Start, s.End)
}

type Script int

const (
	ScriptOther Script = iota
	ScriptTarget
)

func (s Script) String() string {
	if s == ScriptTarget {
		return "target"
	}
	return "other"
}

type Line struct {
	Label   string
	Content string
	Script  Script
}

func (l Line) String() string {
	if l.Label == "" {
		return l.Content
	}
	return l.Label + " " + l.Content
}

type OutputMode int

const (
	ModeRaw OutputMode = iota
	ModeCleaned
	ModeRomanized
)

var modeNames = [...]string{
	ModeRaw:       "raw",
	ModeCleaned:   "cleaned",
	ModeRomanized: "romanized",
}

func (m OutputMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseOutputMode accepts mode names and the menu digits 1/2/3.
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw", "1":
		return ModeRaw, nil
	case "cleaned", "clean", "2":
		return ModeCleaned, nil
	case "romanized", "roman", "3":
		return ModeRomanized, nil
	default:
		return 0, fmt.Errorf("unknown output mode %q (want raw, cleaned or romanized)", s)
	}
}

type Document struct {
	Mode  OutputMode
	Lines []Line

	// Fallbacks counts lines kept in their original script because
	// romanization failed.
	Fallbacks int
}

func (d Document) String() string {
	parts := make([]string, 0, len(d.Lines))
	for _, l := range d.Lines {
		parts = append(parts, l.String())
	}
	return strings.TrimRightFunc(strings.Join(parts, "\n"), unicode.IsSpace)
}

func (d Document) Clone() Document {
	out := d
	out.Lines = append([]Line(nil), d.Lines...)
	return out
}
