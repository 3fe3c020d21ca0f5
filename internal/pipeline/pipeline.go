package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/forPelevin/lyricsmith/internal/domain/cleanup"
	"github.com/forPelevin/lyricsmith/internal/domain/lyrics"
	"github.com/forPelevin/lyricsmith/internal/domain/script"
	"github.com/forPelevin/lyricsmith/internal/output"
	"github.com/forPelevin/lyricsmith/internal/ports"
	"github.com/forPelevin/lyricsmith/internal/ports/adapters/endpoint"
	"github.com/forPelevin/lyricsmith/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/lyricsmith/internal/ports/adapters/gemini"
	"github.com/forPelevin/lyricsmith/internal/ports/adapters/openrouter"
	"github.com/forPelevin/lyricsmith/internal/ports/adapters/songtag"
	"github.com/forPelevin/lyricsmith/internal/ports/adapters/spleeter"
	"github.com/forPelevin/lyricsmith/internal/ports/adapters/wavfile"
	"github.com/forPelevin/lyricsmith/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/lyricsmith/internal/types"
	"github.com/forPelevin/lyricsmith/internal/usecase"
)

const (
	CleanerLocal      = "local"
	CleanerOpenRouter = "openrouter"
	CleanerGemini     = "gemini"
)

type Config struct {
	InputAudio string
	OutDir     string
	Mode       types.OutputMode
	Logger     *slog.Logger

	// CacheDir is the base directory for intermediate files (stems, wav,
	// whisper output). If empty, defaults to ".cache".
	CacheDir string

	SkipSeparation bool
	SpleeterBin    string
	FFmpegPath     string
	WhisperBin     string
	WhisperModel   string
	Language       string

	Particles   []string
	Terminators string
	LineBreaks  bool

	// Cleaner runs after local formatting: local, openrouter or gemini.
	Cleaner string
	// Escalation is the remote cleaner offered when a local result is
	// rejected. Empty disables the offer.
	Escalation string

	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string

	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	GeminiAllowedHosts []string

	Now func() time.Time
}

func (c Config) Validate() error {
	if err := checkFile("input", c.InputAudio); err != nil {
		return err
	}
	if c.WhisperModel == "" {
		return errors.New("whisper model path is required")
	}
	return c.checkProcessing()
}

// ValidateReformat checks cfg for re-processing the text artifact at path.
// No audio tools are involved, so their settings are not required.
func (c Config) ValidateReformat(path string) error {
	if err := checkFile("artifact", path); err != nil {
		return err
	}
	if c.Mode == types.ModeRaw {
		return errors.New("reformat needs the cleaned or romanized mode")
	}
	return c.checkProcessing()
}

func checkFile(what, path string) error {
	if path == "" {
		return fmt.Errorf("%s is empty", what)
	}
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", what, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%s %s is a directory", what, path)
	}
	return nil
}

func (c Config) checkProcessing() error {
	if c.Mode < types.ModeRaw || c.Mode > types.ModeRomanized {
		return fmt.Errorf("invalid output mode %d", int(c.Mode))
	}
	if c.Mode != types.ModeRaw {
		if err := c.checkCleaner(c.Cleaner); err != nil {
			return err
		}
	}
	if c.Escalation != "" {
		if c.Escalation == CleanerLocal {
			return errors.New("escalation cleaner must be remote")
		}
		if err := c.checkCleaner(c.Escalation); err != nil {
			return err
		}
	}
	if err := endpoint.OpenRouter.Validate(c.OpenRouterBaseURL, c.OpenRouterAllowedHosts); err != nil {
		return err
	}
	return endpoint.Gemini.Validate(c.GeminiBaseURL, c.GeminiAllowedHosts)
}

func (c Config) checkCleaner(kind string) error {
	switch kind {
	case "", CleanerLocal:
		return nil
	case CleanerOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return errors.New("OPENROUTER_API_KEY is required for the openrouter cleaner")
		}
	case CleanerGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini cleaner")
		}
	default:
		return fmt.Errorf("unknown cleaner %q (want local, openrouter or gemini)", kind)
	}
	return nil
}

// NewCleaner builds the TextCleaner for kind.
func NewCleaner(cfg Config, kind string) (ports.TextCleaner, error) {
	if err := cfg.checkCleaner(kind); err != nil {
		return nil, err
	}
	switch kind {
	case CleanerOpenRouter:
		return openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL), nil
	case CleanerGemini:
		return gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL), nil
	default:
		return cleanup.Local{}, nil
	}
}

// Formatter builds the line formatter the configuration describes.
func Formatter(cfg Config) lyrics.Formatter {
	particles := cfg.Particles
	if len(particles) == 0 {
		particles = lyrics.DefaultParticles
	}
	terminators := cfg.Terminators
	if terminators == "" {
		terminators = lyrics.DefaultTerminators
	}
	return lyrics.Formatter{
		Block:      script.Devanagari,
		Rules:      lyrics.RulesFor(particles, terminators),
		LineBreaks: cfg.LineBreaks,
	}
}

// Outcome is one saved artifact and what produced it.
type Outcome struct {
	RunID    string
	Path     string
	Song     types.SongInfo
	Raw      types.Document
	Document types.Document
}

func Run(ctx context.Context, cfg Config) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}
	runID := uuid.NewString()
	log := logger(cfg).With("run", runID)

	cleaner, err := NewCleaner(cfg, cfg.Cleaner)
	if err != nil {
		return Outcome{}, err
	}

	deps := usecase.Deps{
		Audio:     ffmpeg.New(cfg.FFmpegPath),
		Probe:     wavfile.New(),
		Tags:      songtag.New(),
		ASR:       whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, cfg.Language),
		Cleaner:   cleaner,
		Assembler: lyrics.NewAssembler(Formatter(cfg)),
		Logger:    log,
	}
	if !cfg.SkipSeparation {
		deps.Separator = spleeter.New(cfg.SpleeterBin)
	}
	uc := usecase.New(deps)

	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	cacheDir := filepath.Join(baseCache, "runs", jobID(cfg.InputAudio))
	log.Info("preparing workspace", "input", cfg.InputAudio, "mode", cfg.Mode, "cleaner", cleaner.Name())
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Outcome{}, err
	}
	log.Debug("cache", "dir", cacheDir)

	res, err := uc.Run(ctx, usecase.Input{
		AudioPath: cfg.InputAudio,
		Mode:      cfg.Mode,
		CacheDir:  cacheDir,
	})
	if err != nil {
		return Outcome{}, err
	}

	path, err := save(cfg, res.Document)
	if err != nil {
		return Outcome{}, err
	}
	log.Info("saved", "path", path, "lines", len(res.Document.Lines))
	return Outcome{
		RunID:    runID,
		Path:     path,
		Song:     res.Song,
		Raw:      res.Raw,
		Document: res.Document,
	}, nil
}

// Reclean re-runs cleanup of prev with the cleaner kind and saves a new
// artifact. Transcription is not repeated.
func Reclean(ctx context.Context, cfg Config, prev Outcome, kind string) (Outcome, error) {
	cleaner, err := NewCleaner(cfg, kind)
	if err != nil {
		return Outcome{}, err
	}
	log := logger(cfg).With("run", prev.RunID)
	uc := usecase.New(usecase.Deps{
		Assembler: lyrics.NewAssembler(Formatter(cfg)),
		Logger:    log,
	})

	mode := prev.Document.Mode
	doc := uc.Finalize(ctx, prev.Raw, mode, cleaner)
	path, err := save(cfg, doc)
	if err != nil {
		return Outcome{}, err
	}
	log.Info("saved", "path", path, "cleaner", cleaner.Name())

	out := prev
	out.Path = path
	out.Document = doc
	return out, nil
}

// Reformat reads a previously saved artifact, treats its rows as the raw
// transcript and finalizes them again in cfg.Mode. Row labels are kept; the
// new document is saved as a fresh artifact.
func Reformat(ctx context.Context, cfg Config, path string) (Outcome, error) {
	if err := cfg.ValidateReformat(path); err != nil {
		return Outcome{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("read artifact: %w", err)
	}
	runID := uuid.NewString()
	log := logger(cfg).With("run", runID)

	asm := lyrics.NewAssembler(Formatter(cfg))
	raw := asm.AssembleText(string(b), types.ModeRaw)
	if len(raw.Lines) == 0 {
		return Outcome{}, fmt.Errorf("artifact %s has no lyric lines", path)
	}
	cleaner, err := NewCleaner(cfg, cfg.Cleaner)
	if err != nil {
		return Outcome{}, err
	}
	log.Info("reformatting", "artifact", path, "lines", len(raw.Lines), "mode", cfg.Mode, "cleaner", cleaner.Name())

	uc := usecase.New(usecase.Deps{Assembler: asm, Logger: log})
	doc := uc.Finalize(ctx, raw, cfg.Mode, cleaner)
	out, err := save(cfg, doc)
	if err != nil {
		return Outcome{}, err
	}
	log.Info("saved", "path", out, "lines", len(doc.Lines))
	return Outcome{RunID: runID, Path: out, Raw: raw, Document: doc}, nil
}

func save(cfg Config, doc types.Document) (string, error) {
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	sel := output.New(outDir)
	if cfg.Now != nil {
		sel.Now = cfg.Now
	}
	return sel.Save(doc)
}

func logger(cfg Config) *slog.Logger {
	if cfg.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.Logger
}

// jobID names the cache directory of an input: readable stem plus a hash of
// the absolute path, size and modification time.
func jobID(input string) string {
	seed := input
	if abs, err := filepath.Abs(input); err == nil {
		seed = abs
	}
	if st, err := os.Stat(input); err == nil {
		seed = fmt.Sprintf("%s|%d|%d", seed, st.Size(), st.ModTime().UnixNano())
	}
	name := normalizePathSegment(strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)))
	if name == "" {
		name = "input"
	}
	return name + "-" + hash(seed)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VocalSeparator = (*spleeter.Adapter)(nil)
var _ ports.AudioTool = (*ffmpeg.Adapter)(nil)
var _ ports.WavProbe = wavfile.Probe{}
var _ ports.TagReader = songtag.Reader{}
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.TextCleaner = (*openrouter.Adapter)(nil)
var _ ports.TextCleaner = (*gemini.Adapter)(nil)
var _ ports.TextCleaner = cleanup.Local{}
