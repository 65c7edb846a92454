// Package pagedseq provides a list-like container that keeps only one page of
// items in memory and spills every other page to files in a private temporary
// directory.
//
// It is meant for building and walking very long sequences (collector output,
// line buffers, intermediate results) without memory growing with length.
// Memory use is bounded by [Options.PageSize] items.
//
// # Basic Usage
//
//	seq, err := pagedseq.New[Event](pagedseq.Options{PageSize: 500})
//	if err != nil {
//	    return err
//	}
//	defer seq.Close()
//
//	for ev := range events {
//	    if err := seq.Append(ev); err != nil {
//	        return err
//	    }
//	}
//
//	for ev, err := range seq.All() {
//	    if err != nil {
//	        return err
//	    }
//	    publish(ev)
//	}
//
// [With] binds the sequence lifetime to a function call and removes the
// backing directory on every exit path, including panics.
//
// # Supported Operations
//
// The [Sequence] type only has the operations it can do cheaply: indexed
// get/set (negative indexes count from the end), append, extend, pop of the
// last item, clear, forward and backward iteration. There is no slicing,
// insertion, deletion, sorting or in-place reversal. [Sequence.PopAt] with any
// index other than the last position returns [ErrUnsupported].
//
// # Storage
//
// Pages are numbered from zero; page n holds items [n*PageSize, (n+1)*PageSize).
// The backing directory is created lazily by the first page swap that has to
// persist a page, so a sequence that fits in one page never touches the disk.
// Page files are named by their decimal page number ("0", "1", ...).
//
// Every page swap writes the outgoing page, even when the swap was caused by a
// read. The resident page is the only source of truth until it is evicted;
// its file, if any, may be stale.
//
// Items must be serializable by the configured [Format]. With [FormatGob],
// concrete types stored behind interface values must be registered with
// [encoding/gob.Register]. Serialization failures surface as [ErrCodec].
//
// # Concurrency
//
// A [Sequence] is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access.
//
// # Error Handling
//
// Usage errors ([ErrOutOfRange], [ErrUnsupported], [ErrClosed],
// [ErrInvalidInput]) are programming errors. Storage errors ([ErrBacking],
// [ErrCodec]) abort the triggering operation and are not retried; a failed
// swap leaves the previously resident page in place.
package pagedseq
