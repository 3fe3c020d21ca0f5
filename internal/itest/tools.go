//go:build integration

package itest

import (
	"os/exec"
	"testing"
)

func requireTool(t *testing.T, name string) string {
	t.Helper()
	p, err := exec.LookPath(name)
	if err != nil {
		t.Fatalf("%s is required for itest: %v", name, err)
	}
	return p
}

// speechFixture renders text with espeak-ng and encodes it as mp3, the way
// songs usually arrive.
func speechFixture(t *testing.T, voice, text, outMP3 string) {
	t.Helper()
	requireTool(t, "espeak-ng")
	requireTool(t, "ffmpeg")

	wav := outMP3 + ".wav"
	cmd := exec.Command("espeak-ng", "-v", voice, "-w", wav, text)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("espeak-ng failed: %v\n%s", err, string(b))
	}
	ff := exec.Command("ffmpeg", "-y", "-i", wav, "-ar", "44100", "-ac", "2", "-c:a", "libmp3lame", outMP3)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
}
