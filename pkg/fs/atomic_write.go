package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ErrAtomicWriteDirSync indicates the parent directory could not be synced after rename.
//
// When returned, the new file is in place but durability is not guaranteed.
// Callers can detect this with errors.Is(err, ErrAtomicWriteDirSync).
var ErrAtomicWriteDirSync = errors.New("dir sync")

// AtomicWriter replaces files by writing a sibling temp file and renaming it
// over the target, so readers never observe a torn file.
type AtomicWriter struct {
	fs   FS
	opts AtomicWriteOptions
}

// AtomicWriteOptions configures [AtomicWriter].
type AtomicWriteOptions struct {
	// Sync fsyncs the temp file before rename and the parent directory after.
	// Without it the write is atomic with respect to readers but not durable
	// across power loss.
	Sync bool
}

// NewAtomicWriter creates an AtomicWriter that uses the given filesystem.
// Panics if fs is nil.
func NewAtomicWriter(fs FS, opts AtomicWriteOptions) *AtomicWriter {
	if fs == nil {
		panic("fs is nil")
	}

	return &AtomicWriter{fs: fs, opts: opts}
}

// WriteFile writes data to path atomically with the given permissions.
//
// The temp file is created next to path as ".<base>.tmp-<n>" and is removed
// on every failure path. If the directory sync step fails, the returned error
// satisfies errors.Is(err, ErrAtomicWriteDirSync).
func (w *AtomicWriter) WriteFile(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return errors.New("path is empty")
	}

	if perm == 0 {
		return errors.New("perm must be non-zero")
	}

	dir, base := filepath.Split(path)
	if base == "" || base == string(os.PathSeparator) || base == "." {
		return fmt.Errorf("path is invalid: %q", path)
	}

	if dir == "" {
		dir = "."
	}

	dir = filepath.Clean(dir)

	tmpFile, tmpPath, err := createAtomicTempFile(w.fs, dir, base, perm)
	if err != nil {
		return err
	}

	closed := false

	discard := func() error {
		var closeErr error
		if !closed {
			closeErr = closeFile("temp file", tmpPath, tmpFile)
		}

		return errors.Join(closeErr, removeTempFile(w.fs, tmpPath))
	}

	err = tmpFile.Chmod(perm)
	if err != nil {
		return errors.Join(fmt.Errorf("chmod temp file %q: %w", tmpPath, err), discard())
	}

	err = writeTempFile(tmpFile, tmpPath, data, w.opts.Sync)
	if err != nil {
		return errors.Join(err, discard())
	}

	closed = true

	err = closeFile("temp file", tmpPath, tmpFile)
	if err != nil {
		return errors.Join(err, discard())
	}

	err = w.fs.Rename(tmpPath, path)
	if err != nil {
		return errors.Join(fmt.Errorf("rename: %w", err), discard())
	}

	if w.opts.Sync {
		return fsyncDir(w.fs, dir)
	}

	return nil
}

func writeTempFile(file File, path string, data []byte, sync bool) error {
	n, err := file.Write(data)
	if err != nil {
		return fmt.Errorf("write temp file %q: %w", path, err)
	}

	if n != len(data) {
		return fmt.Errorf("write temp file %q: short write %d/%d", path, n, len(data))
	}

	if !sync {
		return nil
	}

	err = file.Sync()
	if err != nil {
		return fmt.Errorf("sync temp file %q: %w", path, err)
	}

	return nil
}

const atomicWriteMaxAttempts = 10000

var atomicWriteCounter atomic.Uint64

func createAtomicTempFile(fs FS, dir, base string, perm os.FileMode) (File, string, error) {
	for range atomicWriteMaxAttempts {
		seq := atomicWriteCounter.Add(1)
		path := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, seq))

		file, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return file, path, nil
		}

		if os.IsExist(err) {
			continue
		}

		return nil, "", fmt.Errorf("create temp file: %w", err)
	}

	return nil, "", fmt.Errorf("exhausted temp file attempts in %q", dir)
}

func fsyncDir(fs FS, dirPath string) error {
	dirFd, err := fs.Open(dirPath)
	if err != nil {
		return errors.Join(ErrAtomicWriteDirSync, fmt.Errorf("open dir %q: %w", dirPath, err))
	}

	syncErr := dirFd.Sync()
	if syncErr == nil {
		return closeFile("dir", dirPath, dirFd)
	}

	return errors.Join(
		ErrAtomicWriteDirSync,
		fmt.Errorf("%q: %w", dirPath, syncErr),
		closeFile("dir", dirPath, dirFd),
	)
}

func closeFile(what, path string, file File) error {
	err := file.Close()
	if err == nil {
		return nil
	}

	return fmt.Errorf("close %s %q: %w", what, path, err)
}

func removeTempFile(fs FS, path string) error {
	err := fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file %q: %w", path, err)
	}

	return nil
}
