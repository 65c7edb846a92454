package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one pseq subcommand (tac, shell, print-config).
//
// Run owns flag parsing, --help and error printing, so Exec only deals with
// the command's own work.
type Command struct {
	// Flags holds the command's own flags. Global flags (-C, -c,
	// --page-size, -v) are parsed by [Run] before the command is picked.
	Flags *flag.FlagSet

	// Usage is the synopsis printed after "pseq", starting with the command
	// name, e.g. "tac [-o file] [file...]".
	Usage string

	// Short is the summary shown in the command list.
	Short string

	// Long is shown by "pseq <cmd> --help"; Short when empty.
	Long string

	// Exec runs with the remaining positional args. A returned error is
	// printed as "error: ..." and the exit code becomes 1.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name is the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine formats the command for the list in the global usage, padding
// Usage to width so the summaries line up.
func (c *Command) HelpLine(width int) string {
	return fmt.Sprintf("  %-*s  %s", width, c.Usage, c.Short)
}

// PrintHelp writes the synopsis, description and flags of c.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: pseq", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags == nil || !c.Flags.HasFlags() {
		return
	}

	var buf strings.Builder

	c.Flags.SetOutput(&buf)
	c.Flags.PrintDefaults()

	o.Println()
	o.Println("Flags:")
	o.Printf("%s", buf.String())
}

// Run parses args, then executes the command. It returns the exit code:
// 0 on success (1 if the command printed warnings), 1 on any error.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	err := c.Flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		c.PrintHelp(o)

		return 0
	}

	if err != nil {
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return o.Finish()
}

// usageWidth is the longest Usage among commands.
func usageWidth(commands []*Command) int {
	width := 0

	for _, c := range commands {
		width = max(width, len(c.Usage))
	}

	return width
}
