package pagedseq_test

import (
	"encoding/gob"
	"errors"
	"os"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/calvinalkan/pagedseq/pkg/pagedseq"
)

func init() {
	// Concrete types stored behind `any` in the mixed-item tests.
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// newSeq creates a sequence rooted in a per-test temp dir and closes it when
// the test ends.
func newSeq[T any](t *testing.T, opts pagedseq.Options) *pagedseq.Sequence[T] {
	t.Helper()

	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}

	seq, err := pagedseq.New[T](opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(func() {
		_ = seq.Close()
	})

	return seq
}

func mustAppend[T any](t *testing.T, seq pagedseq.List[T], values ...T) {
	t.Helper()

	for _, v := range values {
		err := seq.Append(v)
		if err != nil {
			t.Fatalf("Append(%v): %v", v, err)
		}
	}
}

func mustGet[T any](t *testing.T, seq pagedseq.List[T], index int) T {
	t.Helper()

	v, err := seq.Get(index)
	if err != nil {
		t.Fatalf("Get(%d): %v", index, err)
	}

	return v
}

func mustPop[T any](t *testing.T, seq pagedseq.List[T]) T {
	t.Helper()

	v, err := seq.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}

	return v
}

func assertItems[T any](t *testing.T, seq pagedseq.List[T], want []T) {
	t.Helper()

	got, err := seq.Items()
	if err != nil {
		t.Fatalf("Items: %v", err)
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func assertBackward[T any](t *testing.T, seq pagedseq.List[T], want []T) {
	t.Helper()

	got := []T{}

	for v, err := range seq.Backward() {
		if err != nil {
			t.Fatalf("Backward: %v", err)
		}

		got = append(got, v)
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("backward mismatch (-want +got):\n%s", diff)
	}
}

// pageFiles lists the backing directory of seq, sorted by name.
func pageFiles[T any](t *testing.T, seq *pagedseq.Sequence[T]) []string {
	t.Helper()

	dir := seq.Dir()
	if dir == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%q): %v", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	slices.Sort(names)

	return names
}

func assertPageFiles[T any](t *testing.T, seq *pagedseq.Sequence[T], want ...string) {
	t.Helper()

	if diff := cmp.Diff(want, pageFiles(t, seq), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("page files mismatch (-want +got):\n%s", diff)
	}
}

func assertDirGone(t *testing.T, dir string) {
	t.Helper()

	if dir == "" {
		t.Fatal("expected a backing directory path, got empty string")
	}

	_, err := os.Stat(dir)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("backing directory %q still present (stat err=%v)", dir, err)
	}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()

	if !errors.Is(err, target) {
		t.Fatalf("err=%v, want errors.Is(err, %v)", err, target)
	}
}
