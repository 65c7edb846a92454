package pagedseq

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/calvinalkan/pagedseq/pkg/fs"
)

// Defaults applied by [New] for zero-valued [Options] fields.
const (
	DefaultPageSize = 1000
	DefaultPrefix   = "pagedseq-"
)

// Format selects the page file encoding.
type Format uint8

const (
	// FormatGob encodes pages with encoding/gob. It round-trips arbitrary
	// composite Go values, but interface-typed items need their concrete
	// types registered with gob.Register.
	FormatGob Format = iota

	// FormatJSON encodes pages as a JSON array. Page files are human
	// readable, but numbers stored behind interface values decode as float64.
	FormatJSON
)

// String returns the config-file name of the format.
func (f Format) String() string {
	switch f {
	case FormatGob:
		return "gob"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// ParseFormat parses "gob" or "json" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gob":
		return FormatGob, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%w: unknown format %q", ErrInvalidInput, s)
	}
}

// Options configure a [Sequence].
//
// All fields are optional; zero values select the defaults documented on
// each field.
type Options struct {
	// PageSize is the number of items per page and therefore the maximum
	// number of items held in memory. Default [DefaultPageSize]. Negative
	// values are rejected.
	PageSize int

	// Dir is the parent directory for the backing directory.
	// Default: the OS temp directory.
	Dir string

	// Prefix starts the backing directory name. Default [DefaultPrefix].
	Prefix string

	// Format selects the page encoding. Default [FormatGob].
	Format Format

	// AtomicPages writes page files via temp file + rename so a crash never
	// leaves a torn page. Pages are still not fsynced.
	AtomicPages bool

	// FS is the filesystem used for the backing store. Default [fs.NewReal].
	FS fs.FS

	// Logger receives debug records for page swaps and directory lifecycle.
	// Default: discard.
	Logger *slog.Logger
}

// DefaultOptions returns the options [New] uses for zero fields.
func DefaultOptions() Options {
	return Options{
		PageSize: DefaultPageSize,
		Prefix:   DefaultPrefix,
		Format:   FormatGob,
	}
}

func (o Options) withDefaults() (Options, error) {
	if o.PageSize < 0 {
		return Options{}, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidInput, o.PageSize)
	}

	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}

	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}

	if strings.ContainsAny(o.Prefix, `/\`) {
		return Options{}, fmt.Errorf("%w: prefix %q contains a path separator", ErrInvalidInput, o.Prefix)
	}

	if o.Format != FormatGob && o.Format != FormatJSON {
		return Options{}, fmt.Errorf("%w: unknown format %s", ErrInvalidInput, o.Format)
	}

	if o.FS == nil {
		o.FS = fs.NewReal()
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	return o, nil
}
