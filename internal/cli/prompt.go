package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/forPelevin/lyricsmith/internal/types"
)

const promptAttempts = 3

func promptMode(in *bufio.Reader, out io.Writer) (types.OutputMode, error) {
	fmt.Fprintln(out, "Choose the lyrics to save:")
	fmt.Fprintln(out, "  1) raw        as transcribed")
	fmt.Fprintln(out, "  2) cleaned    punctuated and capitalised")
	fmt.Fprintln(out, "  3) romanized  cleaned, Devanagari in Latin letters")
	for i := 0; i < promptAttempts; i++ {
		fmt.Fprint(out, "Enter 1, 2 or 3 [2]: ")
		line, err := in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return 0, err
			}
			return types.ModeCleaned, nil
		}
		mode, perr := types.ParseOutputMode(line)
		if perr == nil {
			return mode, nil
		}
		fmt.Fprintln(out, "Invalid choice.")
		if err != nil {
			break
		}
	}
	return 0, errors.New("no valid output mode chosen")
}

// confirm asks a yes/no question; an empty answer or EOF yields def.
func confirm(in *bufio.Reader, out io.Writer, question string, def bool) bool {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	fmt.Fprintf(out, "%s %s: ", question, hint)
	line, _ := in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
