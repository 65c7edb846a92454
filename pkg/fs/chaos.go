package fs

import (
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
//
// The zero value disables all fault injection.
type ChaosConfig struct {
	// ReadFailRate controls how often FS.ReadFile fails entirely, returning
	// no data and EIO (or EACCES/EMFILE when the failure lands on open).
	ReadFailRate float64

	// PartialReadRate controls how often FS.ReadFile returns a truncated
	// prefix of the file together with EIO.
	PartialReadRate float64

	// WriteFailRate controls how often FS.WriteFile and File.Write fail
	// without writing anything (EIO, ENOSPC, EDQUOT or EROFS).
	WriteFailRate float64

	// PartialWriteRate controls how often FS.WriteFile and File.Write write
	// a strict prefix of the data before failing. The target file is left
	// torn, exactly like os.WriteFile after a mid-write ENOSPC.
	PartialWriteRate float64

	// OpenFailRate controls how often FS.Open and FS.OpenFile fail.
	OpenFailRate float64

	// SyncFailRate controls how often File.Sync fails with EIO.
	SyncFailRate float64

	// MkdirFailRate controls how often FS.MkdirTemp fails
	// (EACCES, EIO, ENOSPC, EDQUOT or EROFS).
	MkdirFailRate float64

	// ReadDirFailRate controls how often FS.ReadDir fails entirely.
	ReadDirFailRate float64

	// RemoveFailRate controls how often FS.Remove and FS.RemoveAll fail.
	RemoveFailRate float64

	// RenameFailRate controls how often FS.Rename fails with an *os.LinkError.
	RenameFailRate float64

	// StatFailRate controls how often FS.Stat and FS.Exists fail.
	StatFailRate float64
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeActive enables fault-rate injection.
	// This is the default mode for a new [Chaos].
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every operation directly to the underlying FS.
	ChaosModeNoOp
)

// ChaosStats contains counts of injected faults.
type ChaosStats struct {
	ReadFails     int64
	PartialReads  int64
	WriteFails    int64
	PartialWrites int64
	OpenFails     int64
	SyncFails     int64
	MkdirFails    int64
	ReadDirFails  int64
	RemoveFails   int64
	RenameFails   int64
	StatFails     int64
}

// Total returns the sum of all counters.
func (s ChaosStats) Total() int64 {
	return s.ReadFails + s.PartialReads + s.WriteFails + s.PartialWrites +
		s.OpenFails + s.SyncFails + s.MkdirFails + s.ReadDirFails +
		s.RemoveFails + s.RenameFails + s.StatFails
}

// chaosError marks an error as intentionally injected by [Chaos].
//
// It wraps an [*fs.PathError] (or [*os.LinkError] for rename) carrying a real
// [syscall.Errno], so errors.Is and os.IsPermission keep working.
type chaosError struct {
	Err error
}

func (e *chaosError) Error() string {
	return "chaos: " + e.Err.Error()
}

func (e *chaosError) Unwrap() error {
	return e.Err
}

// IsChaosErr reports whether err (or any wrapped error) was injected by [Chaos].
// Returns false if err is nil.
func IsChaosErr(err error) bool {
	var injected *chaosError

	return errors.As(err, &injected)
}

// Chaos wraps an [FS] and injects random failures for testing.
//
// Each call independently decides whether to inject; there is no sticky
// per-path state. Chaos never injects ENOENT, so any os.IsNotExist result
// originates from the wrapped [FS]. Injected failures on mutations happen
// before the underlying call, except partial writes which really write a
// prefix.
//
// Use [Chaos.SetMode] to switch injection off and on, and [Chaos.Stats] to
// inspect how many faults were injected.
type Chaos struct {
	fs     FS
	config ChaosConfig
	mode   atomic.Uint32

	rngMu sync.Mutex
	rng   *rand.Rand

	readFails     atomic.Int64
	partialReads  atomic.Int64
	writeFails    atomic.Int64
	partialWrites atomic.Int64
	openFails     atomic.Int64
	syncFails     atomic.Int64
	mkdirFails    atomic.Int64
	readDirFails  atomic.Int64
	removeFails   atomic.Int64
	renameFails   atomic.Int64
	statFails     atomic.Int64
}

// NewChaos creates a new [Chaos] filesystem wrapping the given [FS].
// The seed controls random fault injection for reproducibility.
// Panics if underlying is nil.
func NewChaos(underlying FS, seed int64, config ChaosConfig) *Chaos {
	if underlying == nil {
		panic("underlying fs is nil")
	}

	return &Chaos{
		fs:     underlying,
		config: config,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
	}
}

// SetMode updates [Chaos] behavior. Safe to call concurrently with
// filesystem operations.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		ReadFails:     c.readFails.Load(),
		PartialReads:  c.partialReads.Load(),
		WriteFails:    c.writeFails.Load(),
		PartialWrites: c.partialWrites.Load(),
		OpenFails:     c.openFails.Load(),
		SyncFails:     c.syncFails.Load(),
		MkdirFails:    c.mkdirFails.Load(),
		ReadDirFails:  c.readDirFails.Load(),
		RemoveFails:   c.removeFails.Load(),
		RenameFails:   c.renameFails.Load(),
		StatFails:     c.statFails.Load(),
	}
}

// Open opens a file for reading with fault injection.
func (c *Chaos) Open(path string) (File, error) {
	return c.OpenFile(path, os.O_RDONLY, 0)
}

// OpenFile opens a file with fault injection. Returned handles inject
// write and sync faults.
func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if c.should(c.config.OpenFailRate) {
		c.openFails.Add(1)

		return nil, pathError("open", path, c.pick(syscall.EACCES, syscall.EIO, syscall.EMFILE, syscall.ENFILE))
	}

	file, err := c.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{f: file, chaos: c, path: path}, nil
}

// ReadFile reads a file's contents with fault injection.
func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if c.should(c.config.ReadFailRate) {
		c.readFails.Add(1)

		if c.randFloat() < 0.5 {
			return nil, pathError("open", path, c.pick(syscall.EACCES, syscall.EMFILE, syscall.ENFILE))
		}

		return nil, pathError("read", path, syscall.EIO)
	}

	data, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(data) > 1 && c.should(c.config.PartialReadRate) {
		c.partialReads.Add(1)
		cutoff := c.randIntn(len(data)-1) + 1

		return data[:cutoff], pathError("read", path, syscall.EIO)
	}

	return data, nil
}

// WriteFile writes data to a file with fault injection. A partial write
// leaves the first n bytes of data in the file.
func (c *Chaos) WriteFile(path string, data []byte, perm os.FileMode) error {
	if c.should(c.config.WriteFailRate) {
		c.writeFails.Add(1)

		return pathError("write", path, c.pickWriteErrno())
	}

	if len(data) > 1 && c.should(c.config.PartialWriteRate) {
		c.partialWrites.Add(1)
		cutoff := c.randIntn(len(data)-1) + 1

		err := c.fs.WriteFile(path, data[:cutoff], perm)
		if err != nil {
			return err
		}

		return pathError("write", path, c.pickWriteErrno())
	}

	return c.fs.WriteFile(path, data, perm)
}

// ReadDir reads directory contents with fault injection.
func (c *Chaos) ReadDir(path string) ([]os.DirEntry, error) {
	if c.should(c.config.ReadDirFailRate) {
		c.readDirFails.Add(1)

		return nil, pathError("readdir", path, c.pick(syscall.EACCES, syscall.EIO, syscall.EMFILE))
	}

	return c.fs.ReadDir(path)
}

// MkdirTemp creates a temp directory with fault injection.
func (c *Chaos) MkdirTemp(dir, pattern string) (string, error) {
	if c.should(c.config.MkdirFailRate) {
		c.mkdirFails.Add(1)

		return "", pathError("mkdirtemp", dir, c.pick(syscall.EACCES, syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS))
	}

	return c.fs.MkdirTemp(dir, pattern)
}

// Stat returns file info with fault injection.
func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	if c.should(c.config.StatFailRate) {
		c.statFails.Add(1)

		return nil, pathError("stat", path, c.pick(syscall.EACCES, syscall.EIO))
	}

	return c.fs.Stat(path)
}

// Exists checks existence with fault injection.
func (c *Chaos) Exists(path string) (bool, error) {
	if c.should(c.config.StatFailRate) {
		c.statFails.Add(1)

		return false, pathError("stat", path, c.pick(syscall.EACCES, syscall.EIO))
	}

	return c.fs.Exists(path)
}

// Remove deletes a file or empty directory with fault injection.
func (c *Chaos) Remove(path string) error {
	if c.should(c.config.RemoveFailRate) {
		c.removeFails.Add(1)

		return pathError("remove", path, c.pick(syscall.EACCES, syscall.EPERM, syscall.EBUSY, syscall.EIO))
	}

	return c.fs.Remove(path)
}

// RemoveAll deletes a tree with fault injection.
func (c *Chaos) RemoveAll(path string) error {
	if c.should(c.config.RemoveFailRate) {
		c.removeFails.Add(1)

		return pathError("removeall", path, c.pick(syscall.EACCES, syscall.EPERM, syscall.EBUSY, syscall.EIO))
	}

	return c.fs.RemoveAll(path)
}

// Rename renames a file with fault injection.
func (c *Chaos) Rename(oldpath, newpath string) error {
	if c.should(c.config.RenameFailRate) {
		c.renameFails.Add(1)
		le := &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: c.pick(syscall.EACCES, syscall.EIO, syscall.ENOSPC, syscall.EXDEV)}

		return &chaosError{Err: le}
	}

	return c.fs.Rename(oldpath, newpath)
}

func (c *Chaos) should(rate float64) bool {
	if ChaosMode(c.mode.Load()) != ChaosModeActive || rate <= 0 {
		return false
	}

	return c.randFloat() < rate
}

func (c *Chaos) randFloat() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	return c.rng.Float64()
}

func (c *Chaos) randIntn(n int) int {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	return c.rng.IntN(n)
}

func (c *Chaos) pick(errnos ...syscall.Errno) syscall.Errno {
	return errnos[c.randIntn(len(errnos))]
}

func (c *Chaos) pickWriteErrno() syscall.Errno {
	return c.pick(syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS)
}

func pathError(op, path string, errno syscall.Errno) error {
	return &chaosError{Err: &fs.PathError{Op: op, Path: path, Err: errno}}
}

// chaosFile wraps a [File] and injects faults on Write and Sync.
type chaosFile struct {
	f     File
	chaos *Chaos
	path  string
}

func (cf *chaosFile) Read(buf []byte) (int, error) {
	return cf.f.Read(buf)
}

func (cf *chaosFile) Write(data []byte) (int, error) {
	c := cf.chaos

	if c.should(c.config.WriteFailRate) {
		c.writeFails.Add(1)

		return 0, pathError("write", cf.path, c.pickWriteErrno())
	}

	if len(data) > 1 && c.should(c.config.PartialWriteRate) {
		c.partialWrites.Add(1)

		n, err := cf.f.Write(data[:c.randIntn(len(data)-1)+1])
		if err != nil {
			return n, err
		}

		return n, pathError("write", cf.path, c.pickWriteErrno())
	}

	return cf.f.Write(data)
}

func (cf *chaosFile) Close() error {
	return cf.f.Close()
}

func (cf *chaosFile) Stat() (os.FileInfo, error) {
	return cf.f.Stat()
}

func (cf *chaosFile) Sync() error {
	c := cf.chaos

	if c.should(c.config.SyncFailRate) {
		c.syncFails.Add(1)

		return pathError("sync", cf.path, syscall.EIO)
	}

	return cf.f.Sync()
}

func (cf *chaosFile) Chmod(mode os.FileMode) error {
	return cf.f.Chmod(mode)
}

var (
	_ FS   = (*Chaos)(nil)
	_ File = (*chaosFile)(nil)
)
