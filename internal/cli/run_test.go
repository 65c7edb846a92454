package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/calvinalkan/pagedseq/internal/cli"
)

func Test_Run_Prints_Usage_When_No_Command(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun()

	cli.AssertContains(t, stdout, "Usage: pseq [options] <command> [args]")
	cli.AssertContains(t, stdout, "--page-size")
	cli.AssertContains(t, stdout, "tac [-o file] [file...]")
	cli.AssertContains(t, stdout, "shell")
	cli.AssertContains(t, stdout, "print-config")
}

func Test_Run_Aligns_Command_Summaries_In_Usage(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun()

	summaries := []string{"Print lines in reverse order", "Interactive shell over", "Show resolved configuration"}
	column := -1

	for _, line := range strings.Split(stdout, "\n") {
		for _, summary := range summaries {
			i := strings.Index(line, summary)
			if i < 0 {
				continue
			}

			if column == -1 {
				column = i
			}

			if i != column {
				t.Fatalf("summary %q at column %d, want %d:\n%s", summary, i, column, stdout)
			}
		}
	}

	if column == -1 {
		t.Fatalf("no command summaries in usage:\n%s", stdout)
	}
}

func Test_Run_Prints_Usage_When_Help_Flag(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	for _, flag := range []string{"-h", "--help"} {
		stdout := c.MustRun(flag)
		cli.AssertContains(t, stdout, "Commands:")
	}
}

func Test_Run_Prints_Command_Help_When_Command_Help_Flag(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("tac", "--help")

	cli.AssertContains(t, stdout, "Usage: pseq tac [-o file] [file...]")
	cli.AssertContains(t, stdout, "--output")
}

func Test_Run_Fails_When_Command_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("bogus")

	cli.AssertContains(t, stderr, "error: unknown command: bogus")
}

func Test_Run_Fails_When_Global_Flag_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--bogus", "tac")

	cli.AssertContains(t, stderr, "unknown flag: --bogus")
}

func Test_Run_Fails_When_Command_Flag_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout, stderr, code := c.Run("tac", "--bogus")
	if code != 1 {
		t.Fatalf("exit=%d, want 1", code)
	}

	cli.AssertContains(t, stderr, "error: unknown flag: --bogus")
	cli.AssertContains(t, stdout, "Usage: pseq tac")
}

func Test_Run_Stops_When_Signal_Received_While_Stdin_Is_Idle(t *testing.T) {
	t.Parallel()

	for _, command := range []string{"tac", "shell"} {
		t.Run(command, func(t *testing.T) {
			t.Parallel()

			pr, pw, err := os.Pipe()
			if err != nil {
				t.Fatalf("Pipe: %v", err)
			}

			t.Cleanup(func() {
				_ = pw.Close()
				_ = pr.Close()
			})

			dir := t.TempDir()
			spill := filepath.Join(dir, "spill")

			err = os.Mkdir(spill, 0o755)
			if err != nil {
				t.Fatalf("Mkdir: %v", err)
			}

			err = os.WriteFile(filepath.Join(dir, ".pseq.json"), []byte(`{"temp_dir": "spill"}`), 0o600)
			if err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			sigCh := make(chan os.Signal, 1)

			var out, errOut bytes.Buffer

			done := make(chan int, 1)

			go func() {
				done <- cli.Run(pr, &out, &errOut, []string{"pseq", "--cwd", dir, "--page-size", "1", command}, map[string]string{}, sigCh)
			}()

			_, _ = pw.WriteString("append a\nappend b\n")

			// Let the command drain the pipe and block waiting for more.
			time.Sleep(50 * time.Millisecond)

			sigCh <- syscall.SIGINT

			select {
			case code := <-done:
				if code != 1 {
					t.Fatalf("exit=%d, want 1 (stderr=%s)", code, errOut.String())
				}

				cli.AssertContains(t, errOut.String(), "context canceled")
			case <-time.After(5 * time.Second):
				t.Fatal("still running after signal with idle stdin")
			}

			entries, err := os.ReadDir(spill)
			if err != nil {
				t.Fatalf("ReadDir: %v", err)
			}

			if len(entries) != 0 {
				t.Fatalf("spill dir not cleaned up: %v", entries)
			}
		})
	}
}
