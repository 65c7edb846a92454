package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/pagedseq/pkg/pagedseq"
)

// TacCmd returns the tac command.
func TacCmd(cfg Config, stdin io.Reader, logger *slog.Logger) *Command {
	fs := flag.NewFlagSet("tac", flag.ContinueOnError)
	output := fs.StringP("output", "o", "", "Write to `file` (atomically) instead of stdout")

	return &Command{
		Flags: fs,
		Usage: "tac [-o file] [file...]",
		Short: "Print lines in reverse order",
		Long: `Read lines from the given files (or stdin if none, or for "-") and print
them last to first. Only one page of lines is held in memory; the rest is
spilled to a temporary directory that is removed on exit.

Unreadable input files are skipped with a warning.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execTac(ctx, o, cfg, stdin, logger, *output, args)
		},
	}
}

func execTac(ctx context.Context, o *IO, cfg Config, stdin io.Reader, logger *slog.Logger, output string, inputs []string) error {
	opts, err := cfg.SequenceOptions()
	if err != nil {
		return err
	}

	opts.Logger = logger

	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	if output != "" && !filepath.IsAbs(output) {
		output = filepath.Join(cfg.EffectiveCwd, output)
	}

	return pagedseq.With(opts, func(seq *pagedseq.Sequence[string]) error {
		for _, input := range inputs {
			n, readErr := readInput(ctx, o, cfg, stdin, seq, input)
			if readErr != nil {
				return readErr
			}

			logger.Debug("input read", "input", input, "lines", n)
		}

		logger.Debug("sequence built", "lines", seq.Len(), "filesystem_used", seq.FilesystemUsed())

		if output == "" {
			return writeLines(ctx, o.Out(), seq.Backward())
		}

		return writeFileAtomic(output, func(w io.Writer) error {
			return writeLines(ctx, w, seq.Backward())
		})
	})
}

// readInput appends the lines of one input. Unopenable files become a
// warning; errors from the sequence are fatal.
func readInput(ctx context.Context, o *IO, cfg Config, stdin io.Reader, seq *pagedseq.Sequence[string], input string) (int, error) {
	if input == "-" {
		if stdin == nil {
			return 0, nil
		}

		return appendLines(ctx, seq, stdin)
	}

	path := input
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.EffectiveCwd, path)
	}

	file, err := os.Open(path)
	if err != nil {
		o.Warn(fmt.Sprintf("cannot read %s", input), "skipped")

		return 0, nil
	}

	defer func() { _ = file.Close() }()

	return appendLines(ctx, seq, file)
}
