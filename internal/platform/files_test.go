package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"My Song", "My Song"},
		{`a/b\c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  padded  ", "padded"},
		{"tab\there", "tabhere"},
		{"", ""},
	}

	for _, test := range tests {
		result := SanitizeFilename(test.input)
		if result != test.expected {
			t.Errorf("SanitizeFilename(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestFindNewestWithStem(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "track_old.mp3")
	newer := filepath.Join(dir, "track_new.mp3")
	unrelated := filepath.Join(dir, "other.mp3")

	for _, path := range []string{older, newer, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	found, ok := FindNewestWithStem(dir, "track", ".mp3")
	if !ok {
		t.Fatal("Expected a match")
	}
	if found != newer {
		t.Errorf("Expected newest match %q, got %q", newer, found)
	}
}

func TestFindNewestWithStem_NoMatch(t *testing.T) {
	dir := t.TempDir()
	if _, ok := FindNewestWithStem(dir, "track", ".mp3"); ok {
		t.Error("Expected no match in empty directory")
	}
}

func TestSweepIntermediates(t *testing.T) {
	dir := t.TempDir()

	removed := []string{"song.m4a", "song.webm", "song.mp3.part"}
	kept := []string{"song.mp3", "other.m4a", "song.txt"}

	for _, name := range append(append([]string{}, removed...), kept...) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	SweepIntermediates(dir, "song")

	for _, name := range removed {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be removed", name)
		}
	}
	for _, name := range kept {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to survive the sweep", name)
		}
	}
}
