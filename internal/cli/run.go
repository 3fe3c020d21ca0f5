package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/lyricsmith/internal/config"
	"github.com/forPelevin/lyricsmith/internal/pipeline"
	"github.com/forPelevin/lyricsmith/internal/types"
)

const runTimeout = 3 * time.Hour

func (a *app) run(cmd *cobra.Command, input string) error {
	s, err := a.settings(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := setupLogger(s.LogLevel, a.stderr)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	interactive := a.interactive != nil && a.interactive()
	in := bufio.NewReader(a.stdin)

	mode := types.ModeCleaned
	if cmd.Flags().Changed("mode") {
		v, _ := cmd.Flags().GetString("mode")
		if mode, err = types.ParseOutputMode(v); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	} else if interactive {
		if mode, err = promptMode(in, a.stderr); err != nil {
			return err
		}
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	cfg := s.Pipeline(absIn, mode)
	cfg.Logger = logger
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	a.print(res)

	if !interactive || mode == types.ModeRaw || cfg.Escalation == "" {
		return nil
	}
	if confirm(in, a.stderr, "Are you satisfied with the lyrics?", true) {
		return nil
	}
	res, err = pipeline.Reclean(ctx, cfg, res, cfg.Escalation)
	if err != nil {
		return err
	}
	a.print(res)
	return nil
}

func (a *app) print(res pipeline.Outcome) {
	fmt.Fprintln(a.stdout, res.Document.String())
	if res.Document.Fallbacks > 0 {
		fmt.Fprintf(a.stderr, "%d line(s) kept in Devanagari: romanization failed\n", res.Document.Fallbacks)
	}
	fmt.Fprintf(a.stderr, "saved %s\n", res.Path)
}

// settings resolves defaults < INI file < environment < flags.
func (a *app) settings(cmd *cobra.Command) (config.Settings, error) {
	fl := cmd.Flags()
	path, _ := fl.GetString("config")
	s, err := config.Load(path)
	if err != nil {
		return s, err
	}
	getenv := a.getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	if err := s.ApplyEnv(getenv); err != nil {
		return s, err
	}

	str := func(flag string, dst *string) {
		if fl.Changed(flag) {
			*dst, _ = fl.GetString(flag)
		}
	}
	str("out", &s.OutDir)
	str("lang", &s.Language)
	str("cleaner", &s.Cleaner)
	str("log-level", &s.LogLevel)
	str("cache", &s.CacheDir)
	if fl.Changed("breaks") {
		s.LineBreaks, _ = fl.GetBool("breaks")
	}
	if fl.Changed("no-separation") {
		s.SkipSeparation, _ = fl.GetBool("no-separation")
	}
	return s, nil
}

func setupLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lv slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		lv = slog.LevelInfo
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})), nil
}
