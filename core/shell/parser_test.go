package shell

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleBuild() {
	cmd := Build(Tokenize("sort -r < names.txt > sorted.txt &"))

	fmt.Printf("%q\n", cmd.Args)
	fmt.Println(cmd.InputPath, cmd.OutputPath, cmd.Background)

	// Output: ["sort" "-r"]
	// names.txt sorted.txt true
}

func TestBuild(t *testing.T) {
	cases := map[string]struct {
		tokens   []string
		expected Command
	}{
		"empty": {
			tokens:   nil,
			expected: Command{},
		},
		"plain": {
			tokens:   []string{"ls", "-l", "/tmp"},
			expected: Command{Args: []string{"ls", "-l", "/tmp"}},
		},
		"input": {
			tokens:   []string{"wc", "<", "in.txt", "-l"},
			expected: Command{Args: []string{"wc", "-l"}, InputPath: "in.txt"},
		},
		"output": {
			tokens:   []string{"echo", "hi", ">", "out.txt"},
			expected: Command{Args: []string{"echo", "hi"}, OutputPath: "out.txt"},
		},
		"background": {
			tokens:   []string{"sleep", "5", "&"},
			expected: Command{Args: []string{"sleep", "5"}, Background: true},
		},
		"background-mid": {
			tokens:   []string{"sleep", "&", "5"},
			expected: Command{Args: []string{"sleep", "5"}, Background: true},
		},
		"trailing-input": {
			tokens:   []string{"cat", "<"},
			expected: Command{Args: []string{"cat"}},
		},
		"trailing-output": {
			tokens:   []string{"cat", ">"},
			expected: Command{Args: []string{"cat"}},
		},
		"marker-consumes-marker": {
			tokens:   []string{"cat", "<", ">", "out"},
			expected: Command{Args: []string{"cat", "out"}, InputPath: ">"},
		},
		"redirect-consumes-ampersand": {
			tokens:   []string{"cat", ">", "&"},
			expected: Command{Args: []string{"cat"}, OutputPath: "&"},
		},
		"last-redirect-wins": {
			tokens:   []string{"cat", "<", "a", "<", "b", ">", "c", ">", "d"},
			expected: Command{Args: []string{"cat"}, InputPath: "b", OutputPath: "d"},
		},
		"only-markers": {
			tokens:   []string{"&", "<", "in"},
			expected: Command{InputPath: "in", Background: true},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			actual := Build(tc.tokens)

			if diff := cmp.Diff(tc.expected, actual); diff != "" {
				t.Errorf("Build(%q) mismatch (-want +got):\n%s", tc.tokens, diff)
			}
		})
	}
}

func TestBuild_argsAreTokensWithoutMarkers(t *testing.T) {
	lines := []string{
		"ls",
		"ls -la /",
		"grep -n foo bar.txt",
		"  echo   spaced\tout  ",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			stmts := Split(line)

			assert.Len(t, stmts, 1)
			assert.Len(t, stmts[0].Stages, 1)
			assert.Equal(t, Tokenize(line), stmts[0].First().Args)
		})
	}
}

func TestCommand_Empty(t *testing.T) {
	assert.True(t, Command{}.Empty())
	assert.True(t, Build([]string{">", "out"}).Empty())
	assert.False(t, Command{Args: []string{"true"}}.Empty())

	assert.Equal(t, "", Command{}.Name())
	assert.Equal(t, "true", Command{Args: []string{"true"}}.Name())
}

func TestParseStatement(t *testing.T) {
	stmt := ParseStatement("cat < in.txt | wc -l > out.txt &")

	expected := Statement{
		Stages: []Command{
			{Args: []string{"cat"}, InputPath: "in.txt"},
			{Args: []string{"wc", "-l"}, OutputPath: "out.txt", Background: true},
		},
	}
	if diff := cmp.Diff(expected, stmt); diff != "" {
		t.Errorf("ParseStatement mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, stmt.IsPipeline())
	assert.True(t, stmt.Background())
	assert.Equal(t, "in.txt", stmt.First().InputPath)
	assert.Equal(t, "out.txt", stmt.Last().OutputPath)
	assert.Equal(t, []string{"cat", "|", "wc", "-l"}, stmt.Args())
}

func TestParseStatement_emptyStages(t *testing.T) {
	stmt := ParseStatement(" | ls | | ")

	assert.False(t, stmt.IsPipeline())
	assert.Equal(t, []Command{{Args: []string{"ls"}}}, stmt.Stages)

	assert.Empty(t, ParseStatement("   ").Stages)
	assert.Empty(t, ParseStatement("|").Stages)
}

func TestParseStatement_backgroundOnEmptyStage(t *testing.T) {
	cases := map[string]struct {
		segment    string
		background bool
	}{
		"trailing":        {"sleep 5 | &", true},
		"trailing pipes":  {"sleep 5 | & | ", true},
		"middle":          {"sleep 5 | & | cat", false},
		"leading dropped": {"& | sleep 5", false},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			stmt := ParseStatement(tc.segment)

			require.NotEmpty(t, stmt.Stages)
			assert.Equal(t, tc.background, stmt.Background())
		})
	}
}

func TestStatement_backgroundOnlyFromLastStage(t *testing.T) {
	stmt := ParseStatement("sleep 1 & | cat")

	assert.True(t, stmt.First().Background)
	assert.False(t, stmt.Background())
}

func TestSplit(t *testing.T) {
	cases := map[string]struct {
		line     string
		expected int
	}{
		"empty":            {"", 0},
		"blank":            {" \t ", 0},
		"separators-only":  {";;;", 0},
		"single":           {"ls", 1},
		"two":              {"cd /tmp; pwd", 2},
		"trailing-sep":     {"pwd;", 1},
		"pipeline-and-seq": {"ls | wc; echo done", 2},
		"marker-only":      {"& ; ls", 1},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Len(t, Split(tc.line), tc.expected)
		})
	}
}

type goldenTestSuite map[string]string

func (gts goldenTestSuite) Run(t *testing.T) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	)

	for tn, line := range gts {
		t.Run(tn, func(t *testing.T) {
			g.Assert(t, tn, dump(Split(line)))
		})
	}
}

func dump(stmts []Statement) []byte {
	buf := &bytes.Buffer{}
	for i, stmt := range stmts {
		fmt.Fprintf(buf, "statement %d\n", i)
		for j, stage := range stmt.Stages {
			fmt.Fprintf(buf, "  stage %d: args=%q in=%q out=%q bg=%t\n", j, stage.Args, stage.InputPath, stage.OutputPath, stage.Background)
		}
	}
	return buf.Bytes()
}

func TestSplit_golden(t *testing.T) {
	cases := goldenTestSuite{
		"pipeline-redirects": "cat < in.txt | grep a | wc -l > out.txt &",
		"sequence":           "cd /tmp; pwd ;; sleep 5 &",
		"dangling-operators": "ls > ; | wc <",
	}

	cases.Run(t)
}
