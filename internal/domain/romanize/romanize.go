// Package romanize renders Devanagari text in Latin letters.
//
// The scheme follows ITRANS with a few lyric-friendly substitutions (danda
// becomes a full stop, nukta consonants use single letters) and the result
// is always lower-cased, so long and short vowels collapse.
package romanize

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/forPelevin/lyricsmith/internal/domain/script"
)

var ErrTransliteration = errors.New("transliteration failed")

// TransliterationError reports a target-script code point the table does not
// cover. Offset is the byte offset in the NFC-normalised input.
type TransliterationError struct {
	Rune   rune
	Offset int
}

func (e *TransliterationError) Error() string {
	return fmt.Sprintf("transliteration: no mapping for %U %q at byte %d", e.Rune, e.Rune, e.Offset)
}

func (e *TransliterationError) Is(target error) bool { return target == ErrTransliteration }

type Romanizer interface {
	Romanize(text string) (string, error)
}

// ITRANS is the table-driven Devanagari romanizer. The zero value is ready.
type ITRANS struct{}

const (
	nukta  = '़'
	virama = '्'
	zwnj   = '‌'
	zwj    = '‍'
)

func (ITRANS) Romanize(text string) (string, error) {
	text = norm.NFC.String(text)
	out := make([]byte, 0, len(text)+8)

	var (
		pending   bool // consonant written, inherent vowel unresolved
		cons      rune
		consStart int
	)
	for i, r := range text {
		if c, ok := consonants[r]; ok {
			if pending {
				out = append(out, 'a')
			}
			consStart, cons, pending = len(out), r, true
			out = append(out, c...)
			continue
		}
		switch r {
		case nukta:
			form, ok := nuktaForms[cons]
			if !pending || !ok {
				return "", &TransliterationError{Rune: r, Offset: i}
			}
			out = append(out[:consStart], form...)
			continue
		case virama:
			pending = false
			continue
		case zwj, zwnj:
			continue
		}
		if m, ok := vowelSigns[r]; ok {
			pending = false
			out = append(out, m...)
			continue
		}
		if pending {
			out = append(out, 'a')
			pending = false
		}
		if s, ok := others[r]; ok {
			out = append(out, s...)
			continue
		}
		if r == utf8.RuneError {
			if _, n := utf8.DecodeRuneInString(text[i:]); n == 1 {
				out = append(out, text[i])
				continue
			}
		}
		if script.Devanagari.In(r) {
			return "", &TransliterationError{Rune: r, Offset: i}
		}
		out = utf8.AppendRune(out, r)
	}
	if pending {
		out = append(out, 'a')
	}
	return string(lower(out)), nil
}

// lower is strings.ToLower that copies invalid UTF-8 bytes through instead
// of replacing them with U+FFFD.
func lower(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for len(b) > 0 {
		r, n := utf8.DecodeRune(b)
		if r == utf8.RuneError && n == 1 {
			out = append(out, b[0])
		} else {
			out = utf8.AppendRune(out, unicode.ToLower(r))
		}
		b = b[n:]
	}
	return out
}

var consonants = map[rune]string{
	'क': "k", 'ख': "kh", 'ग': "g", 'घ': "gh", 'ङ': "~N",
	'च': "ch", 'छ': "Ch", 'ज': "j", 'झ': "jh", 'ञ': "~n",
	'ट': "T", 'ठ': "Th", 'ड': "D", 'ढ': "Dh", 'ण': "N",
	'त': "t", 'थ': "th", 'द': "d", 'ध': "dh", 'न': "n", 'ऩ': "n",
	'प': "p", 'फ': "ph", 'ब': "b", 'भ': "bh", 'म': "m",
	'य': "y", 'र': "r", 'ऱ': "r", 'ल': "l", 'ळ': "L", 'ऴ': "L", 'व': "v",
	'श': "sh", 'ष': "Sh", 'स': "s", 'ह': "h",
}

// NFC keeps these nukta letters decomposed, so they arrive as base+nukta.
var nuktaForms = map[rune]string{
	'क': "q", 'ख': "K", 'ग': "G", 'ज': "z",
	'ड': "R", 'ढ': "Rh", 'फ': "f", 'य': "Y",
}

var vowelSigns = map[rune]string{
	'ा': "A", 'ि': "i", 'ी': "I", 'ु': "u", 'ू': "U",
	'ृ': "RRi", 'ॄ': "RRI", 'ॢ': "LLi", 'ॣ': "LLI",
	'ॅ': "e", 'ॆ': "e", 'े': "e", 'ै': "ai",
	'ॉ': "o", 'ॊ': "o", 'ो': "o", 'ौ': "au",
}

var others = map[rune]string{
	'अ': "a", 'आ': "A", 'इ': "i", 'ई': "I", 'उ': "u", 'ऊ': "U",
	'ऋ': "RRi", 'ॠ': "RRI", 'ऌ': "LLi", 'ॡ': "LLI",
	'ऍ': "e", 'ऎ': "e", 'ए': "e", 'ऐ': "ai",
	'ऑ': "o", 'ऒ': "o", 'ओ': "o", 'औ': "au",
	'ं': "M", 'ँ': "N", 'ः': "H", 'ऽ': "'", 'ॐ': "OM",
	'।': ".", '॥': ".",
	'०': "0", '१': "1", '२': "2", '३': "3", '४': "4",
	'५': "5", '६': "6", '७': "7", '८': "8", '९': "9",
}
