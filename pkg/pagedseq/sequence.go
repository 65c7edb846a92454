package pagedseq

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
)

// noPage marks that no page is resident.
const noPage = -1

// Stats counts page traffic since the sequence was created.
type Stats struct {
	// Swaps is the number of times the resident page changed.
	Swaps int
	// PageWrites is the number of page files written (evictions).
	PageWrites int
	// PageReads is the number of page files read back.
	PageReads int
	// FreshPages is the number of pages started empty at the tail.
	FreshPages int
}

// Sequence is a disk-spilling list of T. At most one page of items is held
// in memory; see the package documentation for the storage layout.
//
// The zero value is not usable; create one with [New], [NewFrom] or [With].
// A Sequence must be closed to remove its backing directory.
type Sequence[T any] struct {
	pageSize int
	length   int

	resident int
	page     []T

	store  *pageStore[T]
	log    *slog.Logger
	stats  Stats
	closed bool
}

// New returns an empty sequence. No filesystem access happens until a
// second page is needed.
func New[T any](opts Options) (*Sequence[T], error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	return &Sequence[T]{
		pageSize: opts.PageSize,
		resident: noPage,
		store:    newPageStore[T](opts),
		log:      opts.Logger,
	}, nil
}

// NewFrom returns a sequence holding items in iteration order. If appending
// fails, the partially built sequence is closed and the error returned.
func NewFrom[T any](items iter.Seq[T], opts Options) (*Sequence[T], error) {
	seq, err := New[T](opts)
	if err != nil {
		return nil, err
	}

	err = seq.Extend(items)
	if err != nil {
		return nil, errors.Join(err, seq.Close())
	}

	return seq, nil
}

// With creates a sequence, passes it to fn and closes it afterwards, whether
// fn returns normally, returns an error or panics. A close failure is joined
// into the returned error.
func With[T any](opts Options, fn func(seq *Sequence[T]) error) (err error) {
	seq, err := New[T](opts)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := seq.Close()
		if closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	return fn(seq)
}

// Len returns the number of items. It is 0 after [Sequence.Clear] and
// [Sequence.Close].
func (s *Sequence[T]) Len() int {
	return s.length
}

// PageSize returns the configured page size.
func (s *Sequence[T]) PageSize() int {
	return s.pageSize
}

// FilesystemUsed reports whether the backing directory was ever created.
// It stays true after [Sequence.Close].
func (s *Sequence[T]) FilesystemUsed() bool {
	return s.store.used
}

// Dir returns the backing directory, or "" if none exists (not created yet,
// or removed by Close).
func (s *Sequence[T]) Dir() string {
	return s.store.dir
}

// Stats returns a snapshot of the page traffic counters.
func (s *Sequence[T]) Stats() Stats {
	return s.stats
}

// Get returns the item at index. Negative indexes count from the end:
// -1 is the last item. Reading a non-resident page evicts the resident one.
func (s *Sequence[T]) Get(index int) (T, error) {
	var zero T

	if s.closed {
		return zero, ErrClosed
	}

	local, err := s.locate(index)
	if err != nil {
		return zero, err
	}

	return s.page[local], nil
}

// Set replaces the item at index. Negative indexes count from the end.
func (s *Sequence[T]) Set(index int, value T) error {
	if s.closed {
		return ErrClosed
	}

	local, err := s.locate(index)
	if err != nil {
		return err
	}

	s.page[local] = value

	return nil
}

// Append adds value at the end.
func (s *Sequence[T]) Append(value T) error {
	if s.closed {
		return ErrClosed
	}

	pageNo, local := s.length/s.pageSize, s.length%s.pageSize
	if pageNo != s.resident {
		err := s.swapTo(pageNo, local == 0)
		if err != nil {
			return err
		}
	}

	s.page = append(s.page, value)
	s.length++

	return nil
}

// Extend appends every item of items in order. It stops at the first error;
// items appended before the error stay in the sequence.
func (s *Sequence[T]) Extend(items iter.Seq[T]) error {
	if s.closed {
		return ErrClosed
	}

	if items == nil {
		return nil
	}

	for item := range items {
		err := s.Append(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// Pop removes and returns the last item. Popping an empty sequence returns
// [ErrOutOfRange].
func (s *Sequence[T]) Pop() (T, error) {
	var zero T

	if s.closed {
		return zero, ErrClosed
	}

	local, err := s.locate(-1)
	if err != nil {
		return zero, err
	}

	value := s.page[local]
	s.page[local] = zero
	s.page = s.page[:local]
	s.length--

	return value, nil
}

// PopAt removes and returns the item at index, which must denote the last
// position (-1 or Len()-1). Any other index returns [ErrUnsupported].
func (s *Sequence[T]) PopAt(index int) (T, error) {
	var zero T

	if s.closed {
		return zero, ErrClosed
	}

	if index != -1 && index != s.length-1 {
		return zero, fmt.Errorf("%w: pop at index %d (only the last item can be popped)", ErrUnsupported, index)
	}

	return s.Pop()
}

// Clear empties the sequence and drops the resident page. Page files already
// on disk are left alone until [Sequence.Close]; they are overwritten before
// they are ever read again.
func (s *Sequence[T]) Clear() {
	s.page = nil
	s.resident = noPage
	s.length = 0
}

// Close clears the sequence and removes the backing directory with all page
// files. It is idempotent. If cleanup fails, the error is returned and a
// later Close retries it.
func (s *Sequence[T]) Close() error {
	s.Clear()
	s.closed = true

	return s.store.release()
}

// locate normalizes index, bounds-checks it, makes its page resident and
// returns the offset inside the resident page.
func (s *Sequence[T]) locate(index int) (int, error) {
	effective := index
	if effective < 0 {
		effective += s.length
	}

	if effective < 0 || effective >= s.length {
		return 0, fmt.Errorf("%w: index %d with length %d", ErrOutOfRange, index, s.length)
	}

	pageNo, local := effective/s.pageSize, effective%s.pageSize
	if pageNo != s.resident {
		err := s.swapTo(pageNo, false)
		if err != nil {
			return 0, err
		}
	}

	return local, nil
}

// swapTo makes pageNo resident. The outgoing page is always written, even if
// the swap was triggered by a read. A fresh page starts empty without
// touching the disk. The resident page only changes once the incoming page
// is in hand, so a failed swap leaves the sequence as it was.
func (s *Sequence[T]) swapTo(pageNo int, fresh bool) error {
	if s.resident != noPage {
		err := s.store.save(s.resident, s.page)
		if err != nil {
			return err
		}

		s.stats.PageWrites++
	}

	var incoming []T

	if fresh {
		incoming = make([]T, 0, min(s.pageSize, 64))
		s.stats.FreshPages++
	} else {
		loaded, err := s.store.load(pageNo)
		if err != nil {
			return err
		}

		incoming = loaded
		s.stats.PageReads++
	}

	s.log.Debug("page swap", "from", s.resident, "to", pageNo, "fresh", fresh)

	s.page = incoming
	s.resident = pageNo
	s.stats.Swaps++

	return nil
}
