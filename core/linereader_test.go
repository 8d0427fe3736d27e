package core

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, reader LineReader) (lines []string, errs []error) {
	t.Helper()

	for i := 0; i < 100; i++ {
		line, err := reader.Readline()
		switch {
		case err == io.EOF:
			return lines, errs
		case err != nil:
			errs = append(errs, err)
		default:
			lines = append(lines, line)
		}
	}
	t.Fatal("reader never returned io.EOF")
	return nil, nil
}

func TestBufferedReader(t *testing.T) {
	long := strings.Repeat("x", 5000)

	cases := map[string]struct {
		input  string
		maxLen int

		wantLines []string
		wantErrs  []error
	}{
		"empty": {
			input:  "",
			maxLen: 10,
		},
		"lines": {
			input:     "ls -l\n\necho hi\n",
			maxLen:    10,
			wantLines: []string{"ls -l", "", "echo hi"},
		},
		"no trailing newline": {
			input:     "a\nb",
			maxLen:    10,
			wantLines: []string{"a", "b"},
		},
		"crlf": {
			input:     "a\r\nb\r\n",
			maxLen:    10,
			wantLines: []string{"a", "b"},
		},
		"exactly max": {
			input:     "0123456789\n",
			maxLen:    10,
			wantLines: []string{"0123456789"},
		},
		"too long": {
			input:     "01234567890\nok\n",
			maxLen:    10,
			wantLines: []string{"ok"},
			wantErrs:  []error{ErrLineTooLong},
		},
		"longer than buffer": {
			input:     long + "\n",
			maxLen:    len(long),
			wantLines: []string{long},
		},
		"too long across buffers": {
			input:     long + "\nok\n" + long,
			maxLen:    10,
			wantLines: []string{"ok"},
			wantErrs:  []error{ErrLineTooLong, ErrLineTooLong},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			reader := NewBufferedReader(strings.NewReader(tc.input), nil, tc.maxLen)
			lines, errs := readAll(t, reader)

			assert.Equal(t, tc.wantLines, lines)
			assert.Equal(t, tc.wantErrs, errs)
		})
	}
}

func TestBufferedReader_prompt(t *testing.T) {
	var out bytes.Buffer
	reader := NewBufferedReader(strings.NewReader("a\n"), &out, 10)

	reader.SetPrompt("$ ")
	_, err := reader.Readline()
	require.NoError(t, err)

	reader.SetPrompt("> ")
	_, err = reader.Readline()
	assert.Equal(t, io.EOF, err)

	assert.Equal(t, "$ > ", out.String())
	assert.NoError(t, reader.Close())
}

func TestBufferedReader_nilInput(t *testing.T) {
	reader := NewBufferedReader(nil, nil, 10)

	_, err := reader.Readline()
	assert.Equal(t, io.EOF, err)
}

func TestNewLineReader_notTerminal(t *testing.T) {
	reader, err := NewLineReader(IO{Stdin: strings.NewReader("echo\n")}, 10)
	require.NoError(t, err)

	assert.IsType(t, &BufferedReader{}, reader)
}

func TestNewLineReader_terminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pseudo-terminal available: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	require.True(t, IsTerminal(tty))

	var out bytes.Buffer
	reader, err := NewLineReader(IO{Stdin: tty, Stdout: &out, Stderr: &out}, 10)
	require.NoError(t, err)

	defer reader.Close()

	assert.IsType(t, &terminalReader{}, reader)
}
