package pagedseq

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by pagedseq operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, pagedseq.ErrOutOfRange) {
//	    // index was outside [-Len(), Len())
//	}
var (
	// ErrOutOfRange indicates an index outside [-Len(), Len()), or a pop
	// from an empty sequence.
	ErrOutOfRange = errors.New("pagedseq: index out of range")

	// ErrUnsupported indicates an operation the sequence does not offer,
	// such as popping anything other than the last item.
	//
	// It also matches [errors.ErrUnsupported].
	ErrUnsupported = fmt.Errorf("pagedseq: %w", errors.ErrUnsupported)

	// ErrBacking indicates a filesystem failure while creating the backing
	// directory, writing or reading a page file, or cleaning up.
	//
	// The triggering operation had no effect on the logical contents.
	ErrBacking = errors.New("pagedseq: backing store")

	// ErrCodec indicates a page could not be serialized or deserialized.
	//
	// On encode, an item is not representable in the configured [Format].
	// On decode, a page file is damaged (for example torn by a crash).
	ErrCodec = errors.New("pagedseq: codec")

	// ErrClosed indicates the [Sequence] has already been closed.
	//
	// This is a programming error.
	ErrClosed = errors.New("pagedseq: closed")

	// ErrInvalidInput indicates invalid [Options].
	ErrInvalidInput = errors.New("pagedseq: invalid input")
)
