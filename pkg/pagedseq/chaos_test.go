package pagedseq_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/pagedseq/pkg/fs"
	"github.com/calvinalkan/pagedseq/pkg/pagedseq"
	"github.com/calvinalkan/pagedseq/pkg/pagedseq/model"
)

func newChaosSeq[T any](t *testing.T, config fs.ChaosConfig, opts pagedseq.Options) (*pagedseq.Sequence[T], *fs.Chaos) {
	t.Helper()

	chaos := fs.NewChaos(fs.NewReal(), 1, config)
	chaos.SetMode(fs.ChaosModeNoOp)

	opts.FS = chaos

	seq := newSeq[T](t, opts)

	t.Cleanup(func() {
		chaos.SetMode(fs.ChaosModeNoOp)
		_ = seq.Close()
	})

	return seq, chaos
}

func Test_Sequence_Returns_ErrBacking_And_Stays_Unchanged_When_Page_Write_Fails(t *testing.T) {
	t.Parallel()

	seq, chaos := newChaosSeq[int](t, fs.ChaosConfig{WriteFailRate: 1}, pagedseq.Options{PageSize: 2})
	mustAppend(t, seq, 1, 2, 3)

	chaos.SetMode(fs.ChaosModeActive)

	// Page 1 is resident; reading page 0 must evict it first.
	_, err := seq.Get(0)
	assertErrorIs(t, err, pagedseq.ErrBacking)

	if !fs.IsChaosErr(err) {
		t.Fatalf("err=%v, want injected error in chain", err)
	}

	err = seq.Append(4)
	if err != nil {
		t.Fatalf("Append into resident page: %v", err)
	}

	err = seq.Append(5)
	assertErrorIs(t, err, pagedseq.ErrBacking)

	if got, want := seq.Len(), 4; got != want {
		t.Fatalf("Len()=%d, want=%d", got, want)
	}

	chaos.SetMode(fs.ChaosModeNoOp)

	assertItems(t, seq, []int{1, 2, 3, 4})
	mustAppend(t, seq, 5)
	assertItems(t, seq, []int{1, 2, 3, 4, 5})
}

func Test_Sequence_Returns_ErrBacking_And_Stays_Unchanged_When_Page_Read_Fails(t *testing.T) {
	t.Parallel()

	seq, chaos := newChaosSeq[string](t, fs.ChaosConfig{ReadFailRate: 1}, pagedseq.Options{PageSize: 2})
	mustAppend(t, seq, "a", "b", "c", "d", "e")

	chaos.SetMode(fs.ChaosModeActive)

	_, err := seq.Get(1)
	assertErrorIs(t, err, pagedseq.ErrBacking)

	err = seq.Set(0, "A")
	assertErrorIs(t, err, pagedseq.ErrBacking)

	// The resident tail page still serves without disk reads.
	if got := mustGet[string](t, seq, -1); got != "e" {
		t.Fatalf("Get(-1)=%q, want e", got)
	}

	for _, err := range seq.All() {
		assertErrorIs(t, err, pagedseq.ErrBacking)

		break
	}

	_, err = seq.Items()
	assertErrorIs(t, err, pagedseq.ErrBacking)

	chaos.SetMode(fs.ChaosModeNoOp)

	assertItems(t, seq, []string{"a", "b", "c", "d", "e"})
}

func Test_Sequence_Returns_ErrBacking_When_Backing_Dir_Cannot_Be_Created(t *testing.T) {
	t.Parallel()

	seq, chaos := newChaosSeq[int](t, fs.ChaosConfig{MkdirFailRate: 1}, pagedseq.Options{PageSize: 1})
	mustAppend(t, seq, 1)

	chaos.SetMode(fs.ChaosModeActive)

	err := seq.Append(2)
	assertErrorIs(t, err, pagedseq.ErrBacking)

	if seq.FilesystemUsed() {
		t.Fatal("FilesystemUsed()=true, want false")
	}

	chaos.SetMode(fs.ChaosModeNoOp)
	mustAppend(t, seq, 2)

	if !seq.FilesystemUsed() {
		t.Fatal("FilesystemUsed()=false, want true")
	}
}

type unregistered struct {
	Name string
}

func Test_Sequence_Returns_ErrCodec_Without_Creating_Dir_When_Item_Not_Encodable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		format pagedseq.Format
		item   any
	}{
		{name: "GobUnregisteredType", format: pagedseq.FormatGob, item: unregistered{Name: "x"}},
		{name: "JSONChannel", format: pagedseq.FormatJSON, item: make(chan int)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			parent := t.TempDir()
			seq := newSeq[any](t, pagedseq.Options{PageSize: 1, Dir: parent, Format: tc.format})

			mustAppend[any](t, seq, tc.item)

			err := seq.Append("next")
			assertErrorIs(t, err, pagedseq.ErrCodec)

			if seq.FilesystemUsed() {
				t.Fatal("FilesystemUsed()=true, want false")
			}

			entries, err := os.ReadDir(parent)
			if err != nil {
				t.Fatalf("ReadDir: %v", err)
			}

			if len(entries) != 0 {
				t.Fatalf("parent has %d entries, want 0", len(entries))
			}

			if got, want := seq.Len(), 1; got != want {
				t.Fatalf("Len()=%d, want=%d", got, want)
			}

			// The unencodable item can still be replaced and the sequence used.
			err = seq.Set(0, "fine")
			if err != nil {
				t.Fatalf("Set: %v", err)
			}

			mustAppend[any](t, seq, "next")
			assertItems(t, seq, []any{"fine", "next"})
		})
	}
}

func Test_Sequence_Returns_ErrCodec_When_Page_File_Is_Torn(t *testing.T) {
	t.Parallel()

	for _, format := range []pagedseq.Format{pagedseq.FormatGob, pagedseq.FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()

			seq := newSeq[string](t, pagedseq.Options{PageSize: 2, Format: format})
			mustAppend(t, seq, "alpha", "beta", "gamma")

			path := filepath.Join(seq.Dir(), "0")

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}

			err = os.WriteFile(path, data[:len(data)/2], 0o600)
			if err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			_, err = seq.Get(0)
			assertErrorIs(t, err, pagedseq.ErrCodec)

			if got := mustGet[string](t, seq, 2); got != "gamma" {
				t.Fatalf("Get(2)=%q, want gamma", got)
			}
		})
	}
}

func Test_Sequence_Close_Succeeds_When_Page_Files_Already_Removed(t *testing.T) {
	t.Parallel()

	seq := newSeq[int](t, pagedseq.Options{PageSize: 1})
	mustAppend(t, seq, 1, 2, 3)

	dir := seq.Dir()

	err := os.Remove(filepath.Join(dir, "1"))
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}

	err = seq.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	assertDirGone(t, dir)
}

func Test_Sequence_Close_Succeeds_When_Backing_Dir_Already_Removed(t *testing.T) {
	t.Parallel()

	seq := newSeq[int](t, pagedseq.Options{PageSize: 1})
	mustAppend(t, seq, 1, 2, 3)

	err := os.RemoveAll(seq.Dir())
	if err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	err = seq.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func Test_Sequence_Close_Retries_Cleanup_When_Remove_Fails(t *testing.T) {
	t.Parallel()

	seq, chaos := newChaosSeq[int](t, fs.ChaosConfig{RemoveFailRate: 1}, pagedseq.Options{PageSize: 1})
	mustAppend(t, seq, 1, 2, 3)

	dir := seq.Dir()

	chaos.SetMode(fs.ChaosModeActive)

	err := seq.Close()
	assertErrorIs(t, err, pagedseq.ErrBacking)

	if got := seq.Dir(); got != dir {
		t.Fatalf("Dir()=%q after failed Close, want %q", got, dir)
	}

	_, err = os.Stat(dir)
	if err != nil {
		t.Fatalf("backing dir should survive failed Close: %v", err)
	}

	// The sequence is closed even though cleanup failed.
	_, err = seq.Get(0)
	assertErrorIs(t, err, pagedseq.ErrClosed)

	chaos.SetMode(fs.ChaosModeNoOp)

	err = seq.Close()
	if err != nil {
		t.Fatalf("second Close: %v", err)
	}

	assertDirGone(t, dir)
}

func Test_Sequence_Matches_Model_When_Filesystem_Faults_Are_Injected(t *testing.T) {
	t.Parallel()

	for _, atomicPages := range []bool{false, true} {
		t.Run(fmt.Sprintf("AtomicPages=%t", atomicPages), func(t *testing.T) {
			t.Parallel()

			config := fs.ChaosConfig{
				ReadFailRate:     0.05,
				PartialReadRate:  0.05,
				WriteFailRate:    0.05,
				PartialWriteRate: 0.05,
				OpenFailRate:     0.05,
				MkdirFailRate:    0.05,
				RemoveFailRate:   0.05,
				RenameFailRate:   0.05,
			}

			seq, chaos := newChaosSeq[int](t, config, pagedseq.Options{PageSize: 3, AtomicPages: atomicPages})
			ref := model.New[int]()

			chaos.SetMode(fs.ChaosModeActive)

			rng := rand.New(rand.NewPCG(42, 7))
			failures := 0

			for step := range 2000 {
				var err error

				switch op := rng.IntN(10); {
				case op < 4:
					v := rng.IntN(1000)

					err = seq.Append(v)
					if err == nil {
						_ = ref.Append(v)
					}
				case op < 6 && ref.Len() > 0:
					i := rng.IntN(ref.Len())

					var got int

					got, err = seq.Get(i)
					if err == nil {
						want, _ := ref.Get(i)
						if got != want {
							t.Fatalf("step %d: Get(%d)=%d, want %d", step, i, got, want)
						}
					}
				case op < 8 && ref.Len() > 0:
					i := rng.IntN(ref.Len()) - ref.Len()
					v := rng.IntN(1000)

					err = seq.Set(i, v)
					if err == nil {
						_ = ref.Set(i, v)
					}
				case op < 9:
					var got int

					got, err = seq.Pop()
					if err == nil {
						want, _ := ref.Pop()
						if got != want {
							t.Fatalf("step %d: Pop()=%d, want %d", step, got, want)
						}
					} else if ref.Len() == 0 && errors.Is(err, pagedseq.ErrOutOfRange) {
						err = nil
					}
				default:
					if rng.IntN(20) == 0 {
						seq.Clear()
						ref.Clear()
					}
				}

				if err != nil {
					failures++

					if !errors.Is(err, pagedseq.ErrBacking) {
						t.Fatalf("step %d: unexpected error %v", step, err)
					}
				}

				if got, want := seq.Len(), ref.Len(); got != want {
					t.Fatalf("step %d: Len()=%d, want=%d", step, got, want)
				}

				if step%100 == 99 {
					chaos.SetMode(fs.ChaosModeNoOp)

					want, _ := ref.Items()
					assertItems(t, seq, want)

					chaos.SetMode(fs.ChaosModeActive)
				}
			}

			if failures == 0 {
				t.Fatal("no faults were injected; test is not exercising failure paths")
			}

			chaos.SetMode(fs.ChaosModeNoOp)

			want, _ := ref.Items()
			assertItems(t, seq, want)

			dir := seq.Dir()

			err := seq.Close()
			if err != nil {
				t.Fatalf("Close: %v", err)
			}

			if dir != "" {
				assertDirGone(t, dir)
			}
		})
	}
}
