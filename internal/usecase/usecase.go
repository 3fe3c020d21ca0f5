package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/forPelevin/lyricsmith/internal/domain/lyrics"
	"github.com/forPelevin/lyricsmith/internal/ports"
	"github.com/forPelevin/lyricsmith/internal/types"
)

type Deps struct {
	// Separator is optional; without it the whole mix is transcribed.
	Separator ports.VocalSeparator
	Audio     ports.AudioTool
	// Probe and Tags are optional.
	Probe     ports.WavProbe
	Tags      ports.TagReader
	ASR       ports.ASR
	Cleaner   ports.TextCleaner
	Assembler lyrics.Assembler
	Logger    *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return Usecase{d: d}
}

type Input struct {
	AudioPath string
	Mode      types.OutputMode
	CacheDir  string
}

type Result struct {
	Song       types.SongInfo
	Transcript types.Transcript
	// Raw is the unformatted assembly every other mode starts from.
	Raw      types.Document
	Document types.Document
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Logger
	var res Result

	if u.d.Tags != nil {
		song, err := u.d.Tags.ReadTags(in.AudioPath)
		if err != nil {
			log.Warn("read tags", "err", err)
		} else if song.Title != "" || song.Artist != "" {
			log.Info("song", "title", song.Title, "artist", song.Artist, "album", song.Album)
		}
		res.Song = song
	}

	vocals := in.AudioPath
	if u.d.Separator != nil {
		p, err := u.d.Separator.Separate(ctx, in.AudioPath, filepath.Join(in.CacheDir, "stems"))
		if err != nil {
			return Result{}, fmt.Errorf("separate vocals: %w", err)
		}
		log.Info("vocals separated", "path", p)
		vocals = p
	}

	wav := filepath.Join(in.CacheDir, "vocals16k.wav")
	if err := u.d.Audio.ToMono16k(ctx, vocals, wav); err != nil {
		return Result{}, err
	}
	if u.d.Probe != nil {
		dur, err := u.d.Probe.Probe(wav)
		if err != nil {
			return Result{}, err
		}
		log.Info("audio ready", "duration", dur)
	}

	tr, err := u.d.ASR.Transcribe(ctx, wav, in.CacheDir)
	if err != nil {
		return Result{}, err
	}
	log.Info("segments ready", "segments", len(tr.Segments), "language", tr.Language)
	res.Transcript = tr

	res.Raw = u.d.Assembler.Assemble(tr.Segments, types.ModeRaw)
	res.Document = u.Finalize(ctx, res.Raw, in.Mode, u.d.Cleaner)
	return res, nil
}

// Finalize derives the document for mode from a raw assembly. Cleaner may be
// nil. A failing cleaner is logged and its input kept.
func (u Usecase) Finalize(ctx context.Context, raw types.Document, mode types.OutputMode, cleaner ports.TextCleaner) types.Document {
	log := u.d.Logger
	if mode == types.ModeRaw {
		doc := raw.Clone()
		doc.Mode = types.ModeRaw
		log.Info("finalized", "mode", doc.Mode, "lines", len(doc.Lines))
		return doc
	}

	base := raw.Clone()
	base.Mode = types.ModeCleaned
	doc := u.d.Assembler.Format(base)
	log.Info("formatted", "lines", len(doc.Lines))

	if cleaner != nil {
		cleaned, err := cleaner.Clean(ctx, doc)
		if err != nil {
			log.Warn("cleanup failed, keeping local result", "cleaner", cleaner.Name(), "err", err)
		} else {
			doc = cleaned
			log.Info("cleaned", "cleaner", cleaner.Name())
		}
	}

	if mode == types.ModeRomanized {
		doc = u.d.Assembler.Romanize(doc)
	}
	log.Info("finalized", "mode", doc.Mode, "lines", len(doc.Lines), "fallbacks", doc.Fallbacks)
	return doc
}
