package playlist

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// buildArchive zips root/base into archivePath. Entries are stored under the
// base directory name so the archive unpacks into a single folder.
func buildArchive(archivePath, root, base string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	srcDir := filepath.Join(root, base)
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		os.Remove(archivePath)
		return err
	}

	if err := zw.Close(); err != nil {
		os.Remove(archivePath)
		return err
	}
	return nil
}
