package pagedseq

import (
	"encoding/gob"
	"encoding/json"
	"io"
)

// codec serializes one page. Implementations must round-trip the slice
// contents; nil and empty pages are interchangeable.
type codec[T any] interface {
	encode(w io.Writer, page []T) error
	decode(r io.Reader) ([]T, error)
}

func newCodec[T any](format Format) codec[T] {
	if format == FormatJSON {
		return jsonCodec[T]{}
	}

	return gobCodec[T]{}
}

type gobCodec[T any] struct{}

func (gobCodec[T]) encode(w io.Writer, page []T) error {
	return gob.NewEncoder(w).Encode(page)
}

func (gobCodec[T]) decode(r io.Reader) ([]T, error) {
	var page []T

	err := gob.NewDecoder(r).Decode(&page)
	if err != nil {
		return nil, err
	}

	return page, nil
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) encode(w io.Writer, page []T) error {
	return json.NewEncoder(w).Encode(page)
}

func (jsonCodec[T]) decode(r io.Reader) ([]T, error) {
	var page []T

	err := json.NewDecoder(r).Decode(&page)
	if err != nil {
		return nil, err
	}

	return page, nil
}
