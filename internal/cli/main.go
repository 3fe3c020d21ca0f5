package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	a := &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		getenv:      os.Getenv,
		interactive: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
	if err := a.root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	getenv      func(string) string
	interactive func() bool
}

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:          "lyricsmith <audio>",
		Short:        "Transcribe song lyrics from an audio file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args[0])
		},
	}

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SilenceErrors = true

	// Visible flags
	pf := root.PersistentFlags()
	pf.String("mode", "", "Output mode: raw, cleaned or romanized (asked when omitted on a terminal)")
	pf.String("out", "", "Output directory (default \"out\")")
	pf.String("lang", "", "Spoken language passed to whisper (default \"hi\")")
	pf.String("cleaner", "", "Text cleaner: local, openrouter or gemini")
	pf.Bool("breaks", false, "Break lines after particles and sentence punctuation")
	pf.String("config", "", "INI config file (default lyricsmith.ini if present)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.Bool("no-separation", false, "Transcribe the full mix without isolating vocals")

	// Hidden tuning flag (internal)
	pf.String("cache", "", "Cache directory")
	_ = pf.MarkHidden("cache")

	root.AddCommand(a.watchCmd(), a.reformatCmd())
	return root
}
