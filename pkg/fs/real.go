package fs

import (
	"errors"
	iofs "io/fs"
	"os"
)

// Real is the [FS] a sequence spills to unless told otherwise: the local
// disk, through the [os] package.
//
// Errors are returned unwrapped, so callers can match them with
// [errors.Is] against [os.ErrNotExist] and friends.
type Real struct{}

// NewReal returns the local disk as an [FS].
func NewReal() *Real {
	return &Real{}
}

// Backing directory lifecycle.

// MkdirTemp creates a fresh directory under dir named pattern plus a random
// suffix. An empty dir means [os.TempDir].
func (*Real) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

// ReadDir lists dir sorted by name.
func (*Real) ReadDir(dir string) ([]os.DirEntry, error) {
	return os.ReadDir(dir)
}

// Remove deletes one page file or an empty directory.
func (*Real) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll deletes path and everything below it. A missing path is not an
// error.
func (*Real) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Whole-page reads and writes.

// ReadFile returns the full contents of path.
func (*Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile creates or truncates path and writes data in one go. It is not
// atomic; see [AtomicWriter].
func (*Real) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// Handles and metadata, used by [AtomicWriter].

func (*Real) Open(path string) (File, error) {
	return os.Open(path)
}

func (*Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

func (*Real) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (*Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Exists reports whether path exists. Only errors other than "not found"
// are returned.
func (*Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, iofs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

var _ FS = (*Real)(nil)
