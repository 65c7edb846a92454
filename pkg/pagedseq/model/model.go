// Package model provides a deliberately simple, in-memory model of the
// observable behavior of [pagedseq.Sequence].
//
// The model keeps every item in one slice and never touches the disk. It is
// the oracle for model-vs-real tests, and a drop-in [pagedseq.List] for
// tests of code that consumes sequences.
package model

import (
	"fmt"
	"iter"

	"github.com/calvinalkan/pagedseq/pkg/pagedseq"
)

// List is a plain-slice implementation of [pagedseq.List].
//
// Closing follows the real sequence: items are dropped, later calls return
// [pagedseq.ErrClosed], and CloseCount records how often Close ran.
type List[T any] struct {
	Values     []T
	IsClosed   bool
	CloseCount int
}

// New returns a model list holding items.
func New[T any](items ...T) *List[T] {
	return &List[T]{Values: append([]T(nil), items...)}
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	return len(l.Values)
}

// Get returns the item at index, counting negative indexes from the end.
func (l *List[T]) Get(index int) (T, error) {
	var zero T

	if l.IsClosed {
		return zero, pagedseq.ErrClosed
	}

	i, err := l.normalize(index)
	if err != nil {
		return zero, err
	}

	return l.Values[i], nil
}

// Set replaces the item at index.
func (l *List[T]) Set(index int, value T) error {
	if l.IsClosed {
		return pagedseq.ErrClosed
	}

	i, err := l.normalize(index)
	if err != nil {
		return err
	}

	l.Values[i] = value

	return nil
}

// Append adds value at the end.
func (l *List[T]) Append(value T) error {
	if l.IsClosed {
		return pagedseq.ErrClosed
	}

	l.Values = append(l.Values, value)

	return nil
}

// Extend appends all items in order.
func (l *List[T]) Extend(items iter.Seq[T]) error {
	if l.IsClosed {
		return pagedseq.ErrClosed
	}

	if items == nil {
		return nil
	}

	for item := range items {
		l.Values = append(l.Values, item)
	}

	return nil
}

// Pop removes and returns the last item.
func (l *List[T]) Pop() (T, error) {
	var zero T

	if l.IsClosed {
		return zero, pagedseq.ErrClosed
	}

	i, err := l.normalize(-1)
	if err != nil {
		return zero, err
	}

	value := l.Values[i]
	l.Values = l.Values[:i]

	return value, nil
}

// PopAt pops the last item if index denotes it, else returns ErrUnsupported.
func (l *List[T]) PopAt(index int) (T, error) {
	var zero T

	if l.IsClosed {
		return zero, pagedseq.ErrClosed
	}

	if index != -1 && index != len(l.Values)-1 {
		return zero, fmt.Errorf("%w: pop at index %d", pagedseq.ErrUnsupported, index)
	}

	return l.Pop()
}

// All iterates first to last.
func (l *List[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i := 0; i < len(l.Values); i++ {
			if !yield(l.Values[i], nil) {
				return
			}
		}
	}
}

// Backward iterates last to first.
func (l *List[T]) Backward() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i := len(l.Values) - 1; i >= 0; i-- {
			if !yield(l.Values[i], nil) {
				return
			}
		}
	}
}

// Items returns a copy of the items.
func (l *List[T]) Items() ([]T, error) {
	return append(make([]T, 0, len(l.Values)), l.Values...), nil
}

// IndexFunc returns the index of the first match, or -1.
func (l *List[T]) IndexFunc(match func(T) bool) (int, error) {
	for i, item := range l.Values {
		if match(item) {
			return i, nil
		}
	}

	return -1, nil
}

// Clear drops all items.
func (l *List[T]) Clear() {
	l.Values = nil
}

// Close drops all items and marks the list closed. Idempotent.
func (l *List[T]) Close() error {
	l.Values = nil
	l.IsClosed = true
	l.CloseCount++

	return nil
}

func (l *List[T]) normalize(index int) (int, error) {
	effective := index
	if effective < 0 {
		effective += len(l.Values)
	}

	if effective < 0 || effective >= len(l.Values) {
		return 0, fmt.Errorf("%w: index %d with length %d", pagedseq.ErrOutOfRange, index, len(l.Values))
	}

	return effective, nil
}

var _ pagedseq.List[int] = (*List[int])(nil)
