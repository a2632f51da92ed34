package platform

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Directory permissions for working directories
const DefaultDirPermissions = 0o755

// Characters never allowed in produced filenames
const forbiddenFilenameChars = `\/*?:"<>|`

// IntermediateExtensions lists the container and codec extensions the download
// engine may leave behind next to the final MP3. Sweeps match on these plus a
// strict filename stem; nothing is ever deleted by age, so a sweep cannot race
// another job still writing its own files.
var IntermediateExtensions = []string{
	".m4a", ".webm", ".mp4", ".opus", ".ogg", ".flac", ".wav", ".mkv", ".avi", ".part", ".ytdl",
}

// SanitizeFilename strips path separators and other unsafe characters from a
// display title so it can be used as a filename on any platform.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(forbiddenFilenameChars, r) {
			b.WriteRune('_')
			continue
		}
		if !unicode.IsPrint(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// EnsureDir creates a directory and any missing parents
func EnsureDir(path string) error {
	return os.MkdirAll(path, DefaultDirPermissions)
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FindNewestWithStem returns the most recently modified file in dir whose name
// starts with stem and ends with ext. It is the documented last-resort policy
// for locating engine output when the exact produced filename cannot be
// predicted: sort matches by modification time descending and pick the first.
func FindNewestWithStem(dir, stem, ext string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	type candidate struct {
		path    string
		modTime int64
	}

	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, stem) || !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(dir, name),
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})
	return candidates[0].path, true
}

// SweepIntermediates removes leftover intermediate-format files in dir that
// share the given stem. Matching is strictly stem prefix plus a known
// extension; files belonging to other jobs are untouched.
func SweepIntermediates(dir, stem string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, stem) {
			continue
		}
		for _, ext := range IntermediateExtensions {
			if strings.HasSuffix(name, ext) {
				os.Remove(filepath.Join(dir, name))
				break
			}
		}
	}
}
