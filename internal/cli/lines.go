package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/calvinalkan/pagedseq/pkg/pagedseq"
)

const outputFilePerm os.FileMode = 0o644

// appendLines appends every line of r to seq, without the line terminator.
// A final line without a trailing newline is kept. Returns the number of
// lines appended.
func appendLines(ctx context.Context, seq pagedseq.List[string], r io.Reader) (int, error) {
	input, release := cancelableInput(ctx, r)
	defer release()

	reader := bufio.NewReader(input)
	count := 0

	for {
		err := ctx.Err()
		if err != nil {
			return count, err
		}

		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return count, ctxErr
			}

			return count, fmt.Errorf("read: %w", readErr)
		}

		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")

			err = seq.Append(line)
			if err != nil {
				return count, err
			}

			count++
		}

		if readErr != nil {
			return count, nil
		}
	}
}

// writeLines writes every item produced by items to w, one per line.
func writeLines(ctx context.Context, w io.Writer, items iter.Seq2[string, error]) error {
	bw := bufio.NewWriter(w)

	for line, err := range items {
		if err != nil {
			return err
		}

		err = ctx.Err()
		if err != nil {
			return err
		}

		_, err = bw.WriteString(line)
		if err != nil {
			return err
		}

		err = bw.WriteByte('\n')
		if err != nil {
			return err
		}
	}

	return bw.Flush()
}

// writeFileAtomic replaces path with whatever fill writes, so a failed or
// canceled write never leaves a partial file behind. fill runs on its own
// goroutine and has returned by the time writeFileAtomic returns.
func writeFileAtomic(path string, fill func(w io.Writer) error) error {
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	go func() {
		fillErr := fill(pw)
		_ = pw.CloseWithError(fillErr)
		done <- fillErr
	}()

	writeErr := atomic.WriteFile(path, pr)

	// Unblocks fill if WriteFile gave up before draining the pipe.
	_ = pr.Close()
	fillErr := <-done

	if writeErr != nil {
		return fmt.Errorf("write %s: %w", path, writeErr)
	}

	if fillErr != nil {
		return fillErr
	}

	// atomic.WriteFile doesn't set permissions for new files
	err := os.Chmod(path, outputFilePerm)
	if err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	return nil
}
