package pagedseq

import "iter"

// All returns an iterator over the items from first to last. Each call
// starts from the beginning. A storage error is yielded once with the zero
// value and ends the iteration.
//
// Iterating walks the pages in order, so every page boundary is a swap.
// Mutating the sequence during iteration other than through [Sequence.Set]
// is not supported.
func (s *Sequence[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i := 0; i < s.length; i++ {
			value, err := s.Get(i)
			if err != nil {
				var zero T

				yield(zero, err)

				return
			}

			if !yield(value, nil) {
				return
			}
		}
	}
}

// Backward returns an iterator over the items from last to first, with the
// same restart and error behavior as [Sequence.All].
func (s *Sequence[T]) Backward() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i := s.length - 1; i >= 0; i-- {
			value, err := s.Get(i)
			if err != nil {
				var zero T

				yield(zero, err)

				return
			}

			if !yield(value, nil) {
				return
			}
		}
	}
}

// Items collects all items into a new slice. It defeats the purpose of the
// sequence for large data and is meant for tests and small results.
func (s *Sequence[T]) Items() ([]T, error) {
	items := make([]T, 0, s.length)

	for value, err := range s.All() {
		if err != nil {
			return nil, err
		}

		items = append(items, value)
	}

	return items, nil
}

// IndexFunc returns the index of the first item satisfying match, or -1.
func (s *Sequence[T]) IndexFunc(match func(T) bool) (int, error) {
	i := 0

	for value, err := range s.All() {
		if err != nil {
			return -1, err
		}

		if match(value) {
			return i, nil
		}

		i++
	}

	return -1, nil
}
