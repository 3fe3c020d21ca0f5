//go:build integration

package itest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const modulePath = "module github.com/forPelevin/lyricsmith"

// findRepoRoot walks up from the working directory to the lyricsmith go.mod.
func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		b, err := os.ReadFile(filepath.Join(wd, "go.mod"))
		if err == nil && bytes.HasPrefix(bytes.TrimSpace(b), []byte(modulePath)) {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", errors.New("could not locate the lyricsmith go.mod")
		}
		wd = parent
	}
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}
