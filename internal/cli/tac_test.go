package cli_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/pagedseq/internal/cli"
)

func Test_Tac_Prints_Lines_In_Reverse_When_Reading_Stdin(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Empty", input: "", want: ""},
		{name: "SingleLine", input: "only\n", want: "only\n"},
		{name: "TrailingNewline", input: "a\nb\nc\n", want: "c\nb\na\n"},
		{name: "NoTrailingNewline", input: "a\nb", want: "b\na\n"},
		{name: "BlankLines", input: "a\n\nb\n", want: "b\n\na\n"},
		{name: "CRLF", input: "a\r\nb\r\n", want: "b\na\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := cli.NewCLI(t)

			stdout, stderr, code := c.RunWithInput(tc.input, "--page-size", "1", "tac")
			if code != 0 {
				t.Fatalf("exit=%d, stderr=%s", code, stderr)
			}

			if diff := cmp.Diff(tc.want, stdout); diff != "" {
				t.Fatalf("stdout mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_Tac_Reverses_Across_Many_Pages_And_Removes_Spill_Dir(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".pseq.json", `{"page_size": 3, "temp_dir": "spill"}`)

	err := os.Mkdir(filepath.Join(c.Dir, "spill"), 0o755)
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	var input, want strings.Builder

	const n = 100

	for i := range n {
		input.WriteString("line " + strconv.Itoa(i) + "\n")
	}

	for i := n - 1; i >= 0; i-- {
		want.WriteString("line " + strconv.Itoa(i) + "\n")
	}

	stdout, stderr, code := c.RunWithInput(input.String(), "--verbose", "tac")
	if code != 0 {
		t.Fatalf("exit=%d, stderr=%s", code, stderr)
	}

	if diff := cmp.Diff(want.String(), stdout); diff != "" {
		t.Fatalf("stdout mismatch (-want +got):\n%s", diff)
	}

	cli.AssertContains(t, stderr, "page swap")
	cli.AssertContains(t, stderr, "backing directory removed")

	entries, err := os.ReadDir(filepath.Join(c.Dir, "spill"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 0 {
		t.Fatalf("spill dir has %d entries after tac, want 0", len(entries))
	}
}

func Test_Tac_Concatenates_Inputs_Before_Reversing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("one.txt", "1\n2\n")
	c.WriteFile("two.txt", "3\n4\n")

	stdout := c.MustRunWithInput("from-stdin\n", "--page-size", "2", "tac", "one.txt", "-", "two.txt")

	if diff := cmp.Diff("4\n3\nfrom-stdin\n2\n1", stdout); diff != "" {
		t.Fatalf("stdout mismatch (-want +got):\n%s", diff)
	}
}

func Test_Tac_Warns_And_Exits_1_When_Input_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("present.txt", "x\ny\n")

	stdout, stderr, code := c.Run("tac", "missing.txt", "present.txt")

	if code != 1 {
		t.Fatalf("exit=%d, want 1", code)
	}

	if diff := cmp.Diff("y\nx\n", stdout); diff != "" {
		t.Fatalf("stdout mismatch (-want +got):\n%s", diff)
	}

	cli.AssertContains(t, stderr, "warning: cannot read missing.txt: skipped")
}

func Test_Tac_Writes_Output_File_When_Output_Flag_Set(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("in.txt", "a\nb\nc\n")
	c.WriteFile("out.txt", "old contents\n")

	stdout := c.MustRun("--page-size", "1", "tac", "-o", "out.txt", "in.txt")
	if stdout != "" {
		t.Fatalf("stdout=%q, want empty", stdout)
	}

	if diff := cmp.Diff("c\nb\na\n", c.ReadFile("out.txt")); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	for _, e := range entries {
		if strings.Contains(e.Name(), "out.txt") && e.Name() != "out.txt" {
			t.Fatalf("leftover temp file %q", e.Name())
		}
	}
}

func Test_Tac_Fails_Without_Touching_Output_When_Output_Dir_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("in.txt", "a\nb\n")

	stderr := c.MustFail("tac", "-o", filepath.Join("nope", "out.txt"), "in.txt")
	cli.AssertContains(t, stderr, "error:")
}
