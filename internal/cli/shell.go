package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/pagedseq/pkg/pagedseq"
)

const shellPrompt = "pseq> "

// ShellCmd returns the shell command.
func ShellCmd(cfg Config, stdin io.Reader, env map[string]string, logger *slog.Logger) *Command {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "shell",
		Short: "Interactive shell over a disk-backed sequence",
		Long: `Start an interactive shell over an empty sequence of text lines.
Type 'help' inside the shell for the list of commands. When stdin is not a
terminal, commands are read one per line without a prompt.

The sequence and its backing directory are discarded on exit.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			opts, err := cfg.SequenceOptions()
			if err != nil {
				return err
			}

			opts.Logger = logger

			reader := newLineReader(ctx, stdin, env)
			defer func() { _ = reader.Close() }()

			return pagedseq.With(opts, func(seq *pagedseq.Sequence[string]) error {
				sh := &shell{seq: seq, o: o, cfg: cfg, format: opts.Format}

				return sh.loop(ctx, reader)
			})
		},
	}
}

// shellCommand is one shell built-in.
type shellCommand struct {
	usage string
	short string
	run   func(sh *shell, ctx context.Context, rest string) error
}

// shellCommands returns the built-ins in help order.
func shellCommands() []shellCommand {
	return []shellCommand{
		{"append <text>", "Append a line", (*shell).cmdAppend},
		{"get <index>", "Print the line at index (negative counts from end)", (*shell).cmdGet},
		{"set <index> <text>", "Replace the line at index", (*shell).cmdSet},
		{"pop", "Remove and print the last line", (*shell).cmdPop},
		{"len", "Print the number of lines", (*shell).cmdLen},
		{"ls [limit]", "List lines first to last", (*shell).cmdList},
		{"rev [limit]", "List lines last to first", (*shell).cmdReverse},
		{"find <text>", "Print the index of the first line equal to text, or -1", (*shell).cmdFind},
		{"clear", "Remove all lines", (*shell).cmdClear},
		{"info", "Show page and storage details", (*shell).cmdInfo},
		{"save <file>", "Write all lines to file (atomically)", (*shell).cmdSave},
		{"load <file>", "Append all lines of file", (*shell).cmdLoad},
		{"help", "Show this help", (*shell).cmdHelp},
		{"quit", "Exit (also: exit, q)", nil},
	}
}

func shellCommandNames() []string {
	commands := shellCommands()
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		name, _, _ := strings.Cut(c.usage, " ")
		names = append(names, name)
	}

	return names
}

type shell struct {
	seq    *pagedseq.Sequence[string]
	o      *IO
	cfg    Config
	format pagedseq.Format
}

func (sh *shell) loop(ctx context.Context, reader lineReader) error {
	for {
		err := ctx.Err()
		if err != nil {
			return err
		}

		line, err := reader.ReadLine(shellPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			return fmt.Errorf("reading input: %w", err)
		}

		quit, err := sh.execLine(ctx, line)
		if err != nil {
			// Backing store failures leave the sequence usable; report and go on.
			sh.o.Println("error:", err)
		}

		if quit {
			return nil
		}
	}
}

// execLine runs one shell line. It reports whether the shell should exit.
func (sh *shell) execLine(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}

	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	rest = strings.TrimSpace(rest)

	switch name {
	case "quit", "exit", "q":
		return true, nil
	case "?":
		name = "help"
	}

	for _, c := range shellCommands() {
		cmdName, _, _ := strings.Cut(c.usage, " ")
		if cmdName == name && c.run != nil {
			return false, c.run(sh, ctx, rest)
		}
	}

	return false, fmt.Errorf("%w: %s (type 'help' for commands)", ErrUnknownCommand, name)
}

func (sh *shell) cmdAppend(_ context.Context, rest string) error {
	return sh.seq.Append(rest)
}

func (sh *shell) cmdGet(_ context.Context, rest string) error {
	index, err := parseIndex(rest)
	if err != nil {
		return err
	}

	line, err := sh.seq.Get(index)
	if err != nil {
		return err
	}

	sh.o.Println(line)

	return nil
}

func (sh *shell) cmdSet(_ context.Context, rest string) error {
	indexArg, text, _ := strings.Cut(rest, " ")

	index, err := parseIndex(indexArg)
	if err != nil {
		return err
	}

	return sh.seq.Set(index, strings.TrimSpace(text))
}

func (sh *shell) cmdPop(_ context.Context, _ string) error {
	line, err := sh.seq.Pop()
	if err != nil {
		return err
	}

	sh.o.Println(line)

	return nil
}

func (sh *shell) cmdLen(_ context.Context, _ string) error {
	sh.o.Println(sh.seq.Len())

	return nil
}

func (sh *shell) cmdList(ctx context.Context, rest string) error {
	limit, err := parseLimit(rest)
	if err != nil {
		return err
	}

	i := 0

	for line, err := range sh.seq.All() {
		if err != nil {
			return err
		}

		if i >= limit || ctx.Err() != nil {
			break
		}

		sh.o.Printf("%d\t%s\n", i, line)
		i++
	}

	return nil
}

func (sh *shell) cmdReverse(ctx context.Context, rest string) error {
	limit, err := parseLimit(rest)
	if err != nil {
		return err
	}

	i := sh.seq.Len() - 1
	printed := 0

	for line, err := range sh.seq.Backward() {
		if err != nil {
			return err
		}

		if printed >= limit || ctx.Err() != nil {
			break
		}

		sh.o.Printf("%d\t%s\n", i, line)
		i--
		printed++
	}

	return nil
}

func (sh *shell) cmdFind(_ context.Context, rest string) error {
	if rest == "" {
		return fmt.Errorf("%w: find <text>", ErrMissingArgument)
	}

	index, err := sh.seq.IndexFunc(func(line string) bool { return line == rest })
	if err != nil {
		return err
	}

	sh.o.Println(index)

	return nil
}

func (sh *shell) cmdClear(_ context.Context, _ string) error {
	sh.seq.Clear()

	return nil
}

func (sh *shell) cmdInfo(_ context.Context, _ string) error {
	stats := sh.seq.Stats()

	sh.o.Printf("len=%d\n", sh.seq.Len())
	sh.o.Printf("page_size=%d\n", sh.seq.PageSize())
	sh.o.Printf("format=%s\n", sh.format)
	sh.o.Printf("filesystem_used=%t\n", sh.seq.FilesystemUsed())

	dir := sh.seq.Dir()
	if dir == "" {
		sh.o.Println("dir=(none)")
	} else {
		sh.o.Println("dir=" + dir)
	}

	sh.o.Printf("swaps=%d page_writes=%d page_reads=%d fresh_pages=%d\n",
		stats.Swaps, stats.PageWrites, stats.PageReads, stats.FreshPages)

	freeDir := dir
	if freeDir == "" {
		freeDir = sh.cfg.TempDirAbs
	}

	if freeDir == "" {
		freeDir = os.TempDir()
	}

	free, err := diskFree(freeDir)
	if err != nil {
		sh.o.Println("disk_free=unknown")
	} else {
		sh.o.Printf("disk_free=%d\n", free)
	}

	return nil
}

func (sh *shell) cmdSave(ctx context.Context, rest string) error {
	if rest == "" {
		return fmt.Errorf("%w: save <file>", ErrMissingArgument)
	}

	path := sh.resolve(rest)

	err := writeFileAtomic(path, func(w io.Writer) error {
		return writeLines(ctx, w, sh.seq.All())
	})
	if err != nil {
		return err
	}

	sh.o.Printf("saved %d lines to %s\n", sh.seq.Len(), path)

	return nil
}

func (sh *shell) cmdLoad(ctx context.Context, rest string) error {
	if rest == "" {
		return fmt.Errorf("%w: load <file>", ErrMissingArgument)
	}

	path := sh.resolve(rest)

	file, err := os.Open(path)
	if err != nil {
		return err
	}

	defer func() { _ = file.Close() }()

	n, err := appendLines(ctx, sh.seq, file)
	if err != nil {
		return err
	}

	sh.o.Printf("loaded %d lines from %s\n", n, path)

	return nil
}

func (sh *shell) cmdHelp(_ context.Context, _ string) error {
	sh.o.Println("Commands:")

	for _, c := range shellCommands() {
		sh.o.Printf("  %-20s %s\n", c.usage, c.short)
	}

	return nil
}

func (sh *shell) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(sh.cfg.EffectiveCwd, path)
}

func parseIndex(arg string) (int, error) {
	if arg == "" {
		return 0, fmt.Errorf("%w: index", ErrMissingArgument)
	}

	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, arg)
	}

	return index, nil
}

// parseLimit parses an optional non-negative limit; empty means unlimited.
func parseLimit(arg string) (int, error) {
	if arg == "" {
		return int(^uint(0) >> 1), nil
	}

	limit, err := strconv.Atoi(arg)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit %q", ErrInvalidIndex, arg)
	}

	return limit, nil
}
