package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// lineReader yields shell input lines. It returns io.EOF when input ends
// or the user aborts the prompt.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// newLineReader returns a readline-style reader with history and tab
// completion when stdin is the process terminal, and a plain line scanner
// otherwise.
//
// The plain reader stops with ctx's error as soon as ctx is done, even while
// waiting for input.
func newLineReader(ctx context.Context, stdin io.Reader, env map[string]string) lineReader {
	if f, ok := stdin.(*os.File); ok && f == os.Stdin && isTerminal(f.Fd()) {
		return newTermReader(env)
	}

	if stdin == nil {
		stdin = strings.NewReader("")
	}

	input, release := cancelableInput(ctx, stdin)

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &scanReader{ctx: ctx, scanner: scanner, release: release}
}

type scanReader struct {
	ctx     context.Context
	scanner *bufio.Scanner
	release func()
}

func (r *scanReader) ReadLine(_ string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}

	err := r.scanner.Err()
	if err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		return "", err
	}

	return "", io.EOF
}

func (r *scanReader) Close() error {
	r.release()

	return nil
}

type termReader struct {
	state       *liner.State
	historyPath string
}

func newTermReader(env map[string]string) *termReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completeShellCommand)

	r := &termReader{state: state}

	if home := env["HOME"]; home != "" {
		r.historyPath = filepath.Join(home, ".pseq_history")

		if f, err := os.Open(r.historyPath); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}

	return r
}

func (r *termReader) ReadLine(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}

		return "", err
	}

	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}

	return line, nil
}

func (r *termReader) Close() error {
	if r.historyPath != "" {
		if f, err := os.Create(r.historyPath); err == nil {
			_, _ = r.state.WriteHistory(f)
			_ = f.Close()
		}
	}

	return r.state.Close()
}

// completeShellCommand completes the command word of a shell line.
func completeShellCommand(line string) []string {
	if strings.Contains(line, " ") {
		return nil
	}

	var matches []string

	for _, name := range shellCommandNames() {
		if strings.HasPrefix(name, strings.ToLower(line)) {
			matches = append(matches, name)
		}
	}

	return matches
}
