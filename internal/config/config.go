// Package config resolves lyricsmith settings from defaults, an INI file and
// the environment. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/forPelevin/lyricsmith/internal/pipeline"
	"github.com/forPelevin/lyricsmith/internal/types"
)

// DefaultFile is read when no file is named and it exists.
const DefaultFile = "lyricsmith.ini"

type Settings struct {
	SpleeterBin    string
	FFmpegPath     string
	WhisperBin     string
	WhisperModel   string
	SkipSeparation bool
	Language       string

	Particles   []string
	Terminators string
	LineBreaks  bool

	Cleaner         string
	Escalation      string
	OpenRouterModel string
	GeminiModel     string

	OutDir   string
	CacheDir string
	LogLevel string

	// Secrets come from the environment only.
	OpenRouterAPIKey       string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string
	GeminiAPIKey           string
	GeminiBaseURL          string
	GeminiAllowedHosts     []string
}

func Defaults() Settings {
	return Settings{
		SpleeterBin:  "spleeter",
		FFmpegPath:   "ffmpeg",
		WhisperBin:   ".cache/bin/whisper.cpp",
		WhisperModel: ".cache/models/ggml-base.bin",
		Language:     "hi",
		Cleaner:      pipeline.CleanerLocal,
		OutDir:       "out",
		CacheDir:     ".cache",
		LogLevel:     "info",
	}
}

// Load returns the defaults overlaid with the INI file at path. An empty path
// means DefaultFile, which may be absent; a named file must exist.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path == "" {
		if _, err := os.Stat(DefaultFile); errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		path = DefaultFile
	}
	f, err := ini.Load(path)
	if err != nil {
		return s, fmt.Errorf("load %s: %w", path, err)
	}
	if err := s.applyINI(f); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Settings) applyINI(f *ini.File) error {
	str := func(section, key string, dst *string) {
		if v := strings.TrimSpace(f.Section(section).Key(key).String()); v != "" {
			*dst = v
		}
	}
	boolean := func(section, key string, dst *bool) error {
		k := f.Section(section).Key(key)
		if strings.TrimSpace(k.String()) == "" {
			return nil
		}
		v, err := k.Bool()
		if err != nil {
			return fmt.Errorf("[%s] %s: %w", section, key, err)
		}
		*dst = v
		return nil
	}

	str("tools", "spleeter", &s.SpleeterBin)
	str("tools", "ffmpeg", &s.FFmpegPath)
	str("tools", "whisper_bin", &s.WhisperBin)
	str("tools", "whisper_model", &s.WhisperModel)
	if err := boolean("tools", "skip_separation", &s.SkipSeparation); err != nil {
		return err
	}
	str("transcribe", "language", &s.Language)

	if v := f.Section("format").Key("particles").String(); strings.TrimSpace(v) != "" {
		s.Particles = splitList(v)
	}
	str("format", "terminators", &s.Terminators)
	if err := boolean("format", "line_breaks", &s.LineBreaks); err != nil {
		return err
	}

	str("cleaner", "kind", &s.Cleaner)
	str("cleaner", "escalate", &s.Escalation)
	str("cleaner", "openrouter_model", &s.OpenRouterModel)
	str("cleaner", "gemini_model", &s.GeminiModel)

	str("output", "dir", &s.OutDir)
	str("output", "cache_dir", &s.CacheDir)
	str("log", "level", &s.LogLevel)
	return nil
}

// ApplyEnv overlays environment variables. getenv is usually os.Getenv.
func (s *Settings) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("LYRICSMITH_SPLEETER", &s.SpleeterBin)
	str("LYRICSMITH_FFMPEG", &s.FFmpegPath)
	str("LYRICSMITH_WHISPER_BIN", &s.WhisperBin)
	str("LYRICSMITH_WHISPER_MODEL", &s.WhisperModel)
	str("LYRICSMITH_LANGUAGE", &s.Language)
	str("LYRICSMITH_CLEANER", &s.Cleaner)
	str("LYRICSMITH_ESCALATE", &s.Escalation)
	str("LYRICSMITH_OUT", &s.OutDir)
	str("LYRICSMITH_CACHE_DIR", &s.CacheDir)
	str("LYRICSMITH_LOG_LEVEL", &s.LogLevel)
	if v := strings.TrimSpace(getenv("LYRICSMITH_SKIP_SEPARATION")); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("LYRICSMITH_SKIP_SEPARATION: %w", err)
		}
		s.SkipSeparation = b
	}

	str("OPENROUTER_MODEL", &s.OpenRouterModel)
	str("GEMINI_MODEL", &s.GeminiModel)
	str("OPENROUTER_API_KEY", &s.OpenRouterAPIKey)
	str("OPENROUTER_BASE_URL", &s.OpenRouterBaseURL)
	str("GEMINI_API_KEY", &s.GeminiAPIKey)
	str("GEMINI_BASE_URL", &s.GeminiBaseURL)
	if v := getenv("OPENROUTER_ALLOWED_HOSTS"); strings.TrimSpace(v) != "" {
		s.OpenRouterAllowedHosts = splitList(v)
	}
	if v := getenv("GEMINI_ALLOWED_HOSTS"); strings.TrimSpace(v) != "" {
		s.GeminiAllowedHosts = splitList(v)
	}
	return nil
}

// EscalationKind is the remote cleaner to offer when the user rejects a
// local result, or "" when none is usable.
func (s Settings) EscalationKind() string {
	if s.Cleaner != "" && s.Cleaner != pipeline.CleanerLocal {
		return ""
	}
	if s.Escalation != "" {
		return s.Escalation
	}
	switch {
	case s.OpenRouterAPIKey != "":
		return pipeline.CleanerOpenRouter
	case s.GeminiAPIKey != "":
		return pipeline.CleanerGemini
	}
	return ""
}

// Pipeline builds the run configuration for one input file.
func (s Settings) Pipeline(input string, mode types.OutputMode) pipeline.Config {
	return pipeline.Config{
		InputAudio:     input,
		OutDir:         s.OutDir,
		Mode:           mode,
		CacheDir:       s.CacheDir,
		SkipSeparation: s.SkipSeparation,
		SpleeterBin:    s.SpleeterBin,
		FFmpegPath:     s.FFmpegPath,
		WhisperBin:     s.WhisperBin,
		WhisperModel:   s.WhisperModel,
		Language:       s.Language,
		Particles:      s.Particles,
		Terminators:    s.Terminators,
		LineBreaks:     s.LineBreaks,
		Cleaner:        s.Cleaner,
		Escalation:     s.EscalationKind(),

		OpenRouterAPIKey:       s.OpenRouterAPIKey,
		OpenRouterModel:        s.OpenRouterModel,
		OpenRouterBaseURL:      s.OpenRouterBaseURL,
		OpenRouterAllowedHosts: s.OpenRouterAllowedHosts,

		GeminiAPIKey:       s.GeminiAPIKey,
		GeminiModel:        s.GeminiModel,
		GeminiBaseURL:      s.GeminiBaseURL,
		GeminiAllowedHosts: s.GeminiAllowedHosts,
	}
}

// splitList accepts comma and/or whitespace separated values.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
