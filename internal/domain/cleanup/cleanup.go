// Package cleanup holds the text cleanup strategies shared by the local
// heuristic and the remote LLM cleaners.
package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/forPelevin/lyricsmith/internal/domain/script"
	"github.com/forPelevin/lyricsmith/internal/types"
)

// Local keeps the formatter's output as is.
type Local struct{}

func (Local) Name() string { return "local" }

func (Local) Clean(_ context.Context, doc types.Document) (types.Document, error) {
	return doc, nil
}

type entry struct {
	Idx  int    `json:"idx"`
	Text string `json:"text"`
}

// Prompt renders the instruction and the numbered lines of doc.
func Prompt(doc types.Document) (string, error) {
	lines := make([]entry, 0, len(doc.Lines))
	for i, l := range doc.Lines {
		lines = append(lines, entry{Idx: i, Text: l.Content})
	}
	b, err := json.Marshal(map[string]any{"lines": lines})
	if err != nil {
		return "", fmt.Errorf("marshal lyrics: %w", err)
	}
	return "These are song lyrics transcribed from audio, one entry per sung phrase. " +
		"Fix obvious recognition mistakes, add punctuation (commas, periods) and make them readable. " +
		"Keep every entry in its original language and writing system; do not translate or transliterate. " +
		"Do not merge, split, drop or reorder entries: return exactly one entry per idx. " +
		"Return strictly valid JSON (no markdown, no code fences) of the form " +
		`{"lines":[{"idx":0,"text":"..."}]}.` +
		"\n\nLyrics JSON:\n" + string(b), nil
}

// Schema is the JSON schema of a cleanup reply.
func Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"lines": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"idx":  map[string]any{"type": "integer"},
						"text": map[string]any{"type": "string"},
					},
					"required": []string{"idx", "text"},
				},
			},
		},
		"required": []string{"lines"},
	}
}

// Apply maps a model reply back onto doc by index. Labels and order never
// change; entries the reply omits or leaves blank keep their text.
func Apply(doc types.Document, reply string, blk script.Block) (types.Document, error) {
	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return doc, err
	}
	var out struct {
		Lines []entry `json:"lines"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return doc, fmt.Errorf("decode cleanup reply: %w", err)
	}

	res := doc.Clone()
	applied := 0
	for _, e := range out.Lines {
		if e.Idx < 0 || e.Idx >= len(res.Lines) {
			continue
		}
		text := collapse(e.Text)
		if text == "" {
			continue
		}
		res.Lines[e.Idx].Content = text
		res.Lines[e.Idx].Script = blk.Classify(text)
		applied++
	}
	if applied == 0 && len(doc.Lines) > 0 {
		return doc, errors.New("cleanup reply has no usable lines")
	}
	return res, nil
}

// collapse squeezes spaces inside each row and drops blank rows, keeping
// line breaks the formatter inserted.
func collapse(s string) string {
	var rows []string
	for _, row := range strings.Split(s, "\n") {
		if row = strings.Join(strings.Fields(row), " "); row != "" {
			rows = append(rows, row)
		}
	}
	return strings.Join(rows, "\n")
}

func ExtractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}
	return "", fmt.Errorf("could not locate JSON object in: %q", Truncate(t, 200))
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
