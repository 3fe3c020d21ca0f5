package script

import "github.com/forPelevin/lyricsmith/internal/types"

// Block is a contiguous Unicode range identifying a writing system.
type Block struct {
	Name string
	Lo   rune
	Hi   rune
}

var Devanagari = Block{Name: "devanagari", Lo: 0x0900, Hi: 0x097F}

func (b Block) In(r rune) bool { return r >= b.Lo && r <= b.Hi }

// Contains reports whether text has at least one code point of the block.
func (b Block) Contains(text string) bool {
	for _, r := range text {
		if b.In(r) {
			return true
		}
	}
	return false
}

func (b Block) Classify(text string) types.Script {
	if b.Contains(text) {
		return types.ScriptTarget
	}
	return types.ScriptOther
}
