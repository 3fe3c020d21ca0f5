package lyrics

import (
	"strings"

	"github.com/forPelevin/lyricsmith/internal/domain/romanize"
	"github.com/forPelevin/lyricsmith/internal/types"
)

// Assembler turns transcription segments into a lyric document. It holds no
// per-call state and is safe for concurrent use.
type Assembler struct {
	Formatter Formatter
	Romanizer romanize.Romanizer
}

func NewAssembler(f Formatter) Assembler {
	return Assembler{Formatter: f, Romanizer: romanize.ITRANS{}}
}

func (a Assembler) Assemble(segments []types.Segment, mode types.OutputMode) types.Document {
	blk := a.Formatter.block()
	doc := types.Document{Mode: mode}
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		doc.Lines = append(doc.Lines, types.Line{
			Label:   s.Label(),
			Content: text,
			Script:  blk.Classify(text),
		})
	}
	return a.finish(doc)
}

// AssembleText is Assemble over a plain transcript, one line per row with an
// optional leading label.
func (a Assembler) AssembleText(text string, mode types.OutputMode) types.Document {
	blk := a.Formatter.block()
	doc := types.Document{Mode: mode}
	for _, row := range strings.Split(text, "\n") {
		label, content := SplitLabel(row)
		if content == "" {
			continue
		}
		doc.Lines = append(doc.Lines, types.Line{Label: label, Content: content, Script: blk.Classify(content)})
	}
	return a.finish(doc)
}

func (a Assembler) finish(doc types.Document) types.Document {
	switch doc.Mode {
	case types.ModeCleaned:
		return a.Format(doc)
	case types.ModeRomanized:
		return a.Romanize(a.Format(doc))
	default:
		return doc
	}
}

// Format runs the formatter over every line, dropping lines left empty.
func (a Assembler) Format(doc types.Document) types.Document {
	out := types.Document{Mode: doc.Mode, Fallbacks: doc.Fallbacks}
	out.Lines = make([]types.Line, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		if fl, ok := a.Formatter.Format(l); ok {
			out.Lines = append(out.Lines, fl)
		}
	}
	return out
}

// Romanize replaces target-script lines with their romanization. A line the
// romanizer cannot handle keeps its text and is counted in Fallbacks.
func (a Assembler) Romanize(doc types.Document) types.Document {
	rz := a.Romanizer
	if rz == nil {
		rz = romanize.ITRANS{}
	}
	blk := a.Formatter.block()

	out := doc.Clone()
	out.Mode = types.ModeRomanized
	for i, l := range out.Lines {
		if !blk.Contains(l.Content) {
			continue
		}
		r, err := rz.Romanize(l.Content)
		if err != nil {
			out.Fallbacks++
			continue
		}
		out.Lines[i].Content = r
		out.Lines[i].Script = blk.Classify(r)
	}
	return out
}
