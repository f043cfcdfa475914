// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

/*
archive.go - Zip Archive and Tree Helpers

Shared by backup, install and restore:

  - zipWriter wraps the destination file and the zip writer and closes them
    in reverse order, syncing the file so a backup is durable before the
    install that depends on it starts.
  - extractArchive writes every entry below a destination directory and
    rejects entries that would escape it (zip-slip).
  - copyTree / replaceEntry implement the wholesale replacement used by the
    installer. File writes and removals go through fileOps so tests can
    inject failures halfway through an install.
*/

//nolint:staticcheck // File documentation, not package doc
package updater

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/wacrm/internal/logging"
)

// fileOps is the filesystem surface of the downloader and installer.
type fileOps interface {
	Open(path string) (io.ReadCloser, error)
	RemoveAll(path string) error
	CopyFile(src, dst string, mode fs.FileMode) error
}

type osFileOps struct{}

//nolint:gosec // G304: path is a downloaded or extracted file
func (osFileOps) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (osFileOps) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

//nolint:gosec // G304: src and dst are derived from the extraction and application roots
func (osFileOps) CopyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close() //nolint:errcheck // Best effort cleanup

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return os.Chmod(dst, mode)
}

// zipWriter holds the writers needed to create an archive.
type zipWriter struct {
	zw   *zip.Writer
	file *os.File
	root string
	n    int
}

func newZipWriter(file *os.File, root string) *zipWriter {
	return &zipWriter{zw: zip.NewWriter(file), file: file, root: root}
}

// Close flushes the zip directory, syncs and closes the file, returning the
// first error encountered.
func (w *zipWriter) Close() error {
	var firstErr error
	if err := w.zw.Close(); err != nil {
		firstErr = err
	}
	if err := w.file.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// entryName returns the archive name of path, relative to the writer root.
func (w *zipWriter) entryName(path string) (string, error) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", fmt.Errorf("failed to compute archive name for %s: %w", path, err)
	}
	if rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", fmt.Errorf("path %s is outside %s", path, w.root)
	}
	return filepath.ToSlash(rel), nil
}

// addTree adds path and everything below it. Directories listed in skip are
// not descended into.
func (w *zipWriter) addTree(ctx context.Context, path string, skip map[string]bool) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() && skip[filepath.Clean(p)] {
			return filepath.SkipDir
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		switch {
		case info.IsDir():
			return w.addDir(p, info)
		case info.Mode().IsRegular():
			return w.addFile(p, info)
		default:
			logging.Debug().Str("path", p).Str("mode", info.Mode().String()).Msg("Skipping non-regular file in backup")
			return nil
		}
	})
}

func (w *zipWriter) addDir(path string, info fs.FileInfo) error {
	if filepath.Clean(path) == filepath.Clean(w.root) {
		return nil
	}
	name, err := w.entryName(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create header for %s: %w", path, err)
	}
	header.Name = name + "/"
	header.Method = zip.Store
	if _, err := w.zw.CreateHeader(header); err != nil {
		return fmt.Errorf("failed to add directory %s: %w", name, err)
	}
	return nil
}

//nolint:gosec // G304: path comes from walking the application root
func (w *zipWriter) addFile(path string, info fs.FileInfo) error {
	name, err := w.entryName(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create header for %s: %w", path, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := w.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close() //nolint:errcheck // Best effort cleanup

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.n++
	return nil
}

// extractArchive extracts every entry of the zip at archivePath below dest and
// returns the number of files written.
func extractArchive(archivePath, dest string) (int, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer zr.Close() //nolint:errcheck // Best effort cleanup

	count := 0
	for _, zf := range zr.File {
		target, err := validateAndBuildDestPath(dest, zf.Name)
		if err != nil {
			return count, err
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, dirMode(zf.Mode())); err != nil {
				return count, fmt.Errorf("failed to create directory %s: %w", zf.Name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return count, fmt.Errorf("failed to create parent of %s: %w", zf.Name, err)
		}
		if err := extractZipFile(zf, target); err != nil {
			return count, fmt.Errorf("failed to extract %s: %w", zf.Name, err)
		}
		count++
	}
	return count, nil
}

// validateAndBuildDestPath joins name onto dest and rejects results outside dest.
func validateAndBuildDestPath(dest, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid archive entry name: %q", name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	cleanDest := filepath.Clean(dest) + string(filepath.Separator)
	if !strings.HasPrefix(target, cleanDest) {
		return "", fmt.Errorf("archive entry escapes destination: %q", name)
	}
	return target, nil
}

//nolint:gosec // G110: archives are checksum-verified artifacts or local backups
func extractZipFile(zf *zip.File, target string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close() //nolint:errcheck // Best effort cleanup

	mode := zf.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close() //nolint:errcheck // Best effort cleanup on error
		return err
	}
	return out.Close()
}

func dirMode(mode fs.FileMode) fs.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o755
	}
	return perm | 0o700
}

// replaceEntry installs src at dst. Directories replace dst wholesale; files
// are copied over.
func replaceEntry(ops fileOps, src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return copyEntry(ops, src, dst, info)
	}

	if _, err := os.Lstat(dst); err == nil {
		if err := ops.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dst, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", dst, err)
	}
	return copyTree(ops, src, dst)
}

// copyTree copies the tree rooted at src to dst, preserving permissions and
// recreating symlinks.
func copyTree(ops fileOps, src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if info.IsDir() {
			return os.MkdirAll(target, dirMode(info.Mode()))
		}
		return copyEntry(ops, p, target, info)
	})
}

func copyEntry(ops fileOps, src, dst string, info fs.FileInfo) error {
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		link, err := os.Readlink(src)
		if err != nil {
			return fmt.Errorf("failed to read link %s: %w", src, err)
		}
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to replace %s: %w", dst, err)
		}
		return os.Symlink(link, dst)
	case info.Mode().IsRegular():
		return ops.CopyFile(src, dst, info.Mode().Perm())
	default:
		logging.Debug().Str("path", src).Str("mode", info.Mode().String()).Msg("Skipping special file during install")
		return nil
	}
}
