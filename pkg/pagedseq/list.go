package pagedseq

import "iter"

// List is the operation set shared by [Sequence] and the in-memory
// reference model in package model. Code that only needs to build and walk
// a sequence should accept a List so tests can substitute the model.
type List[T any] interface {
	Len() int
	Get(index int) (T, error)
	Set(index int, value T) error
	Append(value T) error
	Extend(items iter.Seq[T]) error
	Pop() (T, error)
	PopAt(index int) (T, error)
	All() iter.Seq2[T, error]
	Backward() iter.Seq2[T, error]
	Items() ([]T, error)
	IndexFunc(match func(T) bool) (int, error)
	Clear()
	Close() error
}

var _ List[int] = (*Sequence[int])(nil)
