package pagedseq

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/calvinalkan/pagedseq/pkg/fs"
)

const pageFilePerm os.FileMode = 0o600

// pageStore owns the backing directory and the page files inside it.
//
// The directory does not exist until the first save. Once created, dir stays
// set until release removed it, so a failed release can be retried.
type pageStore[T any] struct {
	fsys   fs.FS
	write  func(path string, data []byte, perm os.FileMode) error
	codec  codec[T]
	parent string
	prefix string
	log    *slog.Logger

	dir  string
	used bool
}

func newPageStore[T any](opts Options) *pageStore[T] {
	store := &pageStore[T]{
		fsys:   opts.FS,
		write:  opts.FS.WriteFile,
		codec:  newCodec[T](opts.Format),
		parent: opts.Dir,
		prefix: opts.Prefix,
		log:    opts.Logger,
	}

	if opts.AtomicPages {
		store.write = fs.NewAtomicWriter(opts.FS, fs.AtomicWriteOptions{}).WriteFile
	}

	return store
}

// save serializes page and writes it to the file for pageNo, creating the
// backing directory first if needed. Encoding happens before any filesystem
// access so an unserializable item never creates the directory.
func (p *pageStore[T]) save(pageNo int, page []T) error {
	var buf bytes.Buffer

	err := p.codec.encode(&buf, page)
	if err != nil {
		return fmt.Errorf("%w: encode page %d: %w", ErrCodec, pageNo, err)
	}

	err = p.ensureDir()
	if err != nil {
		return err
	}

	err = p.write(p.pagePath(pageNo), buf.Bytes(), pageFilePerm)
	if err != nil {
		return fmt.Errorf("%w: write page %d: %w", ErrBacking, pageNo, err)
	}

	p.log.Debug("page written", "page", pageNo, "items", len(page), "bytes", buf.Len())

	return nil
}

// load reads and deserializes the file for pageNo.
func (p *pageStore[T]) load(pageNo int) ([]T, error) {
	if p.dir == "" {
		return nil, fmt.Errorf("%w: read page %d: no backing directory", ErrBacking, pageNo)
	}

	data, err := p.fsys.ReadFile(p.pagePath(pageNo))
	if err != nil {
		return nil, fmt.Errorf("%w: read page %d: %w", ErrBacking, pageNo, err)
	}

	page, err := p.codec.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode page %d: %w", ErrCodec, pageNo, err)
	}

	p.log.Debug("page read", "page", pageNo, "items", len(page), "bytes", len(data))

	return page, nil
}

func (p *pageStore[T]) ensureDir() error {
	if p.dir != "" {
		return nil
	}

	dir, err := p.fsys.MkdirTemp(p.parent, p.prefix)
	if err != nil {
		return fmt.Errorf("%w: create backing directory: %w", ErrBacking, err)
	}

	p.dir = dir
	p.used = true

	p.log.Debug("backing directory created", "dir", dir)

	return nil
}

func (p *pageStore[T]) pagePath(pageNo int) string {
	return filepath.Join(p.dir, strconv.Itoa(pageNo))
}

// release removes every file in the backing directory and then the
// directory itself. Files that are already gone are not an error. On
// failure the directory stays recorded so a later release can finish.
func (p *pageStore[T]) release() error {
	if p.dir == "" {
		return nil
	}

	entries, err := p.fsys.ReadDir(p.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: list backing directory: %w", ErrBacking, err)
	}

	var errs []error

	for _, entry := range entries {
		path := filepath.Join(p.dir, entry.Name())

		rmErr := p.fsys.Remove(path)
		if rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %q: %w", path, rmErr))
		}
	}

	if len(errs) == 0 {
		rmErr := p.fsys.Remove(p.dir)
		if rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %q: %w", p.dir, rmErr))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: cleanup: %w", ErrBacking, errors.Join(errs...))
	}

	p.log.Debug("backing directory removed", "dir", p.dir, "files", len(entries))
	p.dir = ""

	return nil
}
