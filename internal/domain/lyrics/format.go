package lyrics

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/lyricsmith/internal/domain/script"
	"github.com/forPelevin/lyricsmith/internal/types"
)

// BreakRule rewrites a single whitespace-delimited word. Rules run in order
// and each one sees the output of the previous.
type BreakRule struct {
	Name    string
	Pattern *regexp.Regexp
	// Replace is an expansion template for Pattern; empty keeps the word.
	Replace string
	// Break starts a new lyric line after a matching word when the
	// formatter has line breaks enabled.
	Break bool
}

var (
	DefaultParticles   = []string{"है", "हूँ", "हूं", "हो", "था", "थी", "थे", "हैं"}
	DefaultTerminators = "।.?!"
)

// RulesFor builds the particle and terminal punctuation rules. Particles get
// a full stop, replacing a trailing comma, semicolon or colon; both kinds
// break the line after the word.
func RulesFor(particles []string, terminators string) []BreakRule {
	var rules []BreakRule

	var alts []string
	for _, p := range particles {
		if p = strings.TrimSpace(p); p != "" {
			alts = append(alts, regexp.QuoteMeta(p))
		}
	}
	if len(alts) > 0 {
		rules = append(rules, BreakRule{
			Name:    "particle",
			Pattern: regexp.MustCompile(`^(` + strings.Join(alts, "|") + `)[,;:]*$`),
			Replace: "${1}.",
			Break:   true,
		})
	}

	var marks []string
	for _, r := range terminators {
		if !unicode.IsSpace(r) {
			marks = append(marks, regexp.QuoteMeta(string(r)))
		}
	}
	if len(marks) > 0 {
		rules = append(rules, BreakRule{
			Name:    "terminal",
			Pattern: regexp.MustCompile(`(?:` + strings.Join(marks, "|") + `)["'”’)\]]*$`),
			Break:   true,
		})
	}
	return rules
}

func DefaultRules() []BreakRule { return RulesFor(DefaultParticles, DefaultTerminators) }

type Formatter struct {
	Block      script.Block
	Rules      []BreakRule
	LineBreaks bool
}

func DefaultFormatter() Formatter {
	return Formatter{Block: script.Devanagari, Rules: DefaultRules()}
}

func (f Formatter) block() script.Block {
	if f.Block.Hi == 0 {
		return script.Devanagari
	}
	return f.Block
}

// Format normalises one lyric line. It reports false when nothing is left
// to keep.
func (f Formatter) Format(in types.Line) (types.Line, bool) {
	label, content := in.Label, in.Content
	if label == "" {
		label, content = SplitLabel(content)
	}
	content = collapseSpace(content)

	blk := f.block()
	if !blk.Contains(content) {
		content = capitalize(content)
	}
	content = f.applyRules(content)
	if content == "" {
		return types.Line{}, false
	}
	return types.Line{Label: label, Content: content, Script: blk.Classify(content)}, true
}

func (f Formatter) applyRules(content string) string {
	if len(f.Rules) == 0 || content == "" {
		return content
	}
	words := strings.Fields(content)
	var b strings.Builder
	for i, w := range words {
		brk := false
		for _, r := range f.Rules {
			if r.Pattern == nil || !r.Pattern.MatchString(w) {
				continue
			}
			if r.Replace != "" {
				w = r.Pattern.ReplaceAllString(w, r.Replace)
			}
			if r.Break && f.LineBreaks {
				brk = true
			}
		}
		b.WriteString(w)
		if i == len(words)-1 {
			break
		}
		if brk {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

var labelRE = regexp.MustCompile(`^\[\d+(?:\.\d+)?-\d+(?:\.\d+)?\]`)

// SplitLabel separates a leading "[start-end]" timestamp label from the rest
// of text. Other bracketed prefixes such as "[Chorus]" stay in the content.
func SplitLabel(text string) (label, content string) {
	t := strings.TrimSpace(text)
	loc := labelRE.FindStringIndex(t)
	if loc == nil {
		return "", t
	}
	return t[:loc[1]], strings.TrimSpace(t[loc[1]:])
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capitalize title-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(s[n:])
}
