package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point. Returns exit code.
//
// sigCh may be nil. When a signal arrives on it, the command's context is
// canceled. tac and shell stop right away, including while blocked on
// stdin, and remove their backing directories before returning. The
// interactive shell prompt handles Ctrl-C itself.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("pseq", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.SetOutput(&strings.Builder{})

	workDir := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	pageSize := globalFlags.Int("page-size", 0, "Items per page (overrides config)")
	verbose := globalFlags.BoolP("verbose", "v", false, "Log page traffic to stderr")
	help := globalFlags.BoolP("help", "h", false, "Show help")

	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}

	err := globalFlags.Parse(rest)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globalFlags, nil)

		return 1
	}

	if *pageSize < 0 {
		fprintln(errOut, "error:", ErrPageSizeInvalid)

		return 1
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride:  *workDir,
		ConfigPath:       *configPath,
		PageSizeOverride: *pageSize,
		Env:              env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	logger := newLogger(errOut, *verbose)

	commands := []*Command{
		TacCmd(cfg, in, logger),
		ShellCmd(cfg, in, env, logger),
		PrintConfigCmd(&cfg),
	}

	commandArgs := globalFlags.Args()
	if *help || len(commandArgs) == 0 {
		printUsage(out, globalFlags, commands)

		return 0
	}

	name := commandArgs[0]

	var cmd *Command

	for _, c := range commands {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, name))
		printUsage(errOut, globalFlags, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case sig := <-sigCh:
				logger.Debug("signal received, canceling", "signal", sig.String())
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	return cmd.Run(ctx, NewIO(out, errOut), commandArgs[1:])
}

// newLogger returns a text logger on errOut when verbose is set, and a
// discarding logger otherwise.
func newLogger(errOut io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}

	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globalFlags *flag.FlagSet, commands []*Command) {
	fprintln(w, `pseq - disk-backed sequences for line streams

Usage: pseq [options] <command> [args]

Options:`)

	var buf strings.Builder
	globalFlags.SetOutput(&buf)
	globalFlags.PrintDefaults()
	globalFlags.SetOutput(&strings.Builder{})
	_, _ = io.WriteString(w, buf.String())

	if len(commands) == 0 {
		return
	}

	fprintln(w)
	fprintln(w, "Commands:")

	width := usageWidth(commands)

	for _, c := range commands {
		fprintln(w, c.HelpLine(width))
	}
}
