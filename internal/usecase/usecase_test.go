package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/lyricsmith/internal/domain/lyrics"
	"github.com/forPelevin/lyricsmith/internal/ports"
	"github.com/forPelevin/lyricsmith/internal/types"
)

func TestRun_Modes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		mode types.OutputMode
		want []string
	}{
		{
			name: "raw",
			mode: types.ModeRaw,
			want: []string{"[0.00-1.20] yeh mera gaana hai", "[1.20-2.50] यह मेरा गाना है"},
		},
		{
			name: "cleaned",
			mode: types.ModeCleaned,
			want: []string{"[0.00-1.20] Yeh mera gaana hai", "[1.20-2.50] यह मेरा गाना है."},
		},
		{
			name: "romanized",
			mode: types.ModeRomanized,
			want: []string{"[0.00-1.20] Yeh mera gaana hai", "[1.20-2.50] yaha mera gana hai."},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tmp := t.TempDir()
			audio := &fakeAudioTool{}
			uc := New(Deps{
				Audio:     audio,
				ASR:       fakeASR{tr: testTranscript()},
				Assembler: lyrics.NewAssembler(lyrics.DefaultFormatter()),
			})

			res, err := uc.Run(context.Background(), Input{
				AudioPath: filepath.Join(tmp, "song.mp3"),
				Mode:      tc.mode,
				CacheDir:  tmp,
			})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if res.Document.Mode != tc.mode {
				t.Fatalf("mode=%v want %v", res.Document.Mode, tc.mode)
			}
			if got := res.Document.String(); got != strings.Join(tc.want, "\n") {
				t.Fatalf("unexpected document:\n%s", got)
			}
			if res.Raw.Mode != types.ModeRaw || len(res.Raw.Lines) != 2 {
				t.Fatalf("unexpected raw document: %+v", res.Raw)
			}
			if len(audio.inputs) != 1 || audio.inputs[0] != filepath.Join(tmp, "song.mp3") {
				t.Fatalf("expected the mix to be converted without a separator, got %v", audio.inputs)
			}
		})
	}
}

func TestRun_UsesSeparatedVocals(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	audio := &fakeAudioTool{}
	sep := &fakeSeparator{}
	probe := &fakeProbe{dur: 3 * time.Second}
	uc := New(Deps{
		Separator: sep,
		Audio:     audio,
		Probe:     probe,
		Tags:      fakeTags{info: types.SongInfo{Title: "Gaana"}},
		ASR:       fakeASR{tr: testTranscript()},
		Assembler: lyrics.NewAssembler(lyrics.DefaultFormatter()),
	})

	res, err := uc.Run(context.Background(), Input{
		AudioPath: filepath.Join(tmp, "song.mp3"),
		Mode:      types.ModeCleaned,
		CacheDir:  tmp,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	wantVocals := filepath.Join(tmp, "stems", "song", "vocals.wav")
	if len(audio.inputs) != 1 || audio.inputs[0] != wantVocals {
		t.Fatalf("expected vocals %s to be converted, got %v", wantVocals, audio.inputs)
	}
	if probe.calls != 1 {
		t.Fatalf("expected the converted wav to be probed once, got %d", probe.calls)
	}
	if res.Song.Title != "Gaana" {
		t.Fatalf("song info not carried: %+v", res.Song)
	}
}

func TestRun_FatalErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		deps    Deps
		wantErr error
	}{
		{
			name: "separation",
			deps: Deps{
				Separator: &fakeSeparator{err: fmt.Errorf("%w: boom", ports.ErrSeparation)},
				Audio:     &fakeAudioTool{},
				ASR:       fakeASR{tr: testTranscript()},
			},
			wantErr: ports.ErrSeparation,
		},
		{
			name: "undecodable audio",
			deps: Deps{
				Audio: &fakeAudioTool{err: fmt.Errorf("%w: bad input", ports.ErrTranscription)},
				ASR:   fakeASR{tr: testTranscript()},
			},
			wantErr: ports.ErrTranscription,
		},
		{
			name: "invalid wav",
			deps: Deps{
				Audio: &fakeAudioTool{},
				Probe: &fakeProbe{err: fmt.Errorf("%w: not wav", ports.ErrTranscription)},
				ASR:   fakeASR{tr: testTranscript()},
			},
			wantErr: ports.ErrTranscription,
		},
		{
			name: "model failure",
			deps: Deps{
				Audio: &fakeAudioTool{},
				ASR:   fakeASR{err: fmt.Errorf("%w: model missing", ports.ErrTranscription)},
			},
			wantErr: ports.ErrTranscription,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tmp := t.TempDir()
			tc.deps.Assembler = lyrics.NewAssembler(lyrics.DefaultFormatter())
			_, err := New(tc.deps).Run(context.Background(), Input{
				AudioPath: filepath.Join(tmp, "song.mp3"),
				Mode:      types.ModeCleaned,
				CacheDir:  tmp,
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFinalize_CleanerFailureKeepsLocalResult(t *testing.T) {
	t.Parallel()

	asm := lyrics.NewAssembler(lyrics.DefaultFormatter())
	uc := New(Deps{Assembler: asm})
	raw := asm.Assemble(testTranscript().Segments, types.ModeRaw)

	got := uc.Finalize(context.Background(), raw, types.ModeCleaned, fakeCleaner{err: errors.New("429 rate limited")})
	want := asm.Assemble(testTranscript().Segments, types.ModeCleaned)
	if got.String() != want.String() {
		t.Fatalf("expected local result\n%s\ngot\n%s", want, got)
	}
}

func TestFinalize_CleanerRunsBeforeRomanization(t *testing.T) {
	t.Parallel()

	asm := lyrics.NewAssembler(lyrics.DefaultFormatter())
	uc := New(Deps{Assembler: asm})
	raw := asm.Assemble(testTranscript().Segments, types.ModeRaw)

	cleaner := fakeCleaner{edit: func(doc types.Document) types.Document {
		doc = doc.Clone()
		doc.Lines[1].Content = "यह मेरा गाना है, सुनो."
		return doc
	}}
	got := uc.Finalize(context.Background(), raw, types.ModeRomanized, cleaner)
	if got.Mode != types.ModeRomanized {
		t.Fatalf("mode=%v", got.Mode)
	}
	if got.Lines[1].Content != "yaha mera gana hai, suno." {
		t.Fatalf("unexpected romanized line %q", got.Lines[1].Content)
	}
	if raw.Lines[1].Content != "यह मेरा गाना है" {
		t.Fatalf("raw document mutated: %+v", raw.Lines[1])
	}
}

func TestFinalize_RawIgnoresCleaner(t *testing.T) {
	t.Parallel()

	asm := lyrics.NewAssembler(lyrics.DefaultFormatter())
	uc := New(Deps{Assembler: asm})
	raw := asm.Assemble(testTranscript().Segments, types.ModeRaw)

	cleaner := fakeCleaner{edit: func(types.Document) types.Document {
		t.Fatalf("cleaner called for raw output")
		return types.Document{}
	}}
	got := uc.Finalize(context.Background(), raw, types.ModeRaw, cleaner)
	if got.String() != raw.String() {
		t.Fatalf("raw output changed:\n%s", got)
	}
}

type fakeSeparator struct {
	err error
}

func (f *fakeSeparator) Separate(_ context.Context, audioPath, outDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(outDir, base, "vocals.wav"), nil
}

type fakeAudioTool struct {
	inputs []string
	err    error
}

func (f *fakeAudioTool) ToMono16k(_ context.Context, in, _ string) error {
	f.inputs = append(f.inputs, in)
	return f.err
}

type fakeProbe struct {
	dur   time.Duration
	err   error
	calls int
}

func (f *fakeProbe) Probe(string) (time.Duration, error) {
	f.calls++
	return f.dur, f.err
}

type fakeTags struct {
	info types.SongInfo
}

func (f fakeTags) ReadTags(string) (types.SongInfo, error) { return f.info, nil }

type fakeASR struct {
	tr  types.Transcript
	err error
}

func (f fakeASR) Transcribe(_ context.Context, _, _ string) (types.Transcript, error) {
	return f.tr, f.err
}

type fakeCleaner struct {
	edit func(types.Document) types.Document
	err  error
}

func (f fakeCleaner) Name() string { return "fake" }

func (f fakeCleaner) Clean(_ context.Context, doc types.Document) (types.Document, error) {
	if f.err != nil {
		return doc, f.err
	}
	return f.edit(doc), nil
}

func testTranscript() types.Transcript {
	return types.Transcript{
		Language: "hi",
		Segments: []types.Segment{
			{Start: 0, End: 1.2, Text: " yeh mera gaana hai "},
			{Start: 1.2, End: 2.5, Text: "यह मेरा गाना है"},
			{Start: 2.5, End: 3, Text: "   "},
		},
	}
}
