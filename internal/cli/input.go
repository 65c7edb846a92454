package cli

import (
	"context"
	"io"

	"github.com/muesli/cancelreader"
)

// pollable is implemented by inputs backed by a file descriptor, such as
// stdin, pipes and terminals.
type pollable interface {
	Fd() uintptr
}

// cancelableInput wraps r so a read blocked on it returns once ctx is done.
//
// Only descriptor-backed inputs can block indefinitely; anything else, and
// descriptors the poller rejects (regular files), are returned as is. The
// returned release func must be called when reading is finished. It does not
// close r.
func cancelableInput(ctx context.Context, r io.Reader) (io.Reader, func()) {
	if _, ok := r.(pollable); !ok {
		return r, func() {}
	}

	cr, err := cancelreader.NewReader(r)
	if err != nil {
		return r, func() {}
	}

	canceled := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		cr.Cancel()
		close(canceled)
	})

	return cr, func() {
		if !stop() {
			<-canceled
		}

		_ = cr.Close()
	}
}
