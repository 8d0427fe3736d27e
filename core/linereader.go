package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/abiosoft/readline"
)

// ErrLineTooLong is returned by line readers for lines over the configured
// length. The rest of the line is discarded.
var ErrLineTooLong = errors.New("line too long")

// NewLineReader returns a line editor if streams.Stdin is a terminal and a
// plain buffered reader otherwise. Lines longer than maxLen bytes are
// rejected with ErrLineTooLong.
func NewLineReader(streams IO, maxLen int) (LineReader, error) {
	if IsTerminal(streams.Stdin) {
		cfg := &readline.Config{
			Stdin:        readline.NewCancelableStdin(streams.Stdin),
			Stdout:       streams.Stdout,
			Stderr:       streams.Stderr,
			HistoryLimit: -1,
		}
		if err := cfg.Init(); err != nil {
			return nil, err
		}

		rl, err := readline.NewEx(cfg)
		if err != nil {
			return nil, err
		}
		return &terminalReader{Instance: rl, maxLen: maxLen}, nil
	}

	return NewBufferedReader(streams.Stdin, streams.Stdout, maxLen), nil
}

type terminalReader struct {
	*readline.Instance
	maxLen int
}

func (t *terminalReader) Readline() (string, error) {
	line, err := t.Instance.Readline()
	if err != nil {
		return line, err
	}
	if len(line) > t.maxLen {
		return "", ErrLineTooLong
	}
	return line, nil
}

// BufferedReader reads newline terminated lines from a non-interactive
// source, writing the prompt before each read.
type BufferedReader struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
	maxLen int
}

var _ LineReader = (*BufferedReader)(nil)

// NewBufferedReader creates a reader over r that echoes prompts to out.
// A nil r behaves like an empty input.
func NewBufferedReader(r io.Reader, out io.Writer, maxLen int) *BufferedReader {
	if r == nil {
		r = eofReader{}
	}
	if out == nil {
		out = io.Discard
	}
	return &BufferedReader{
		in:     bufio.NewReader(r),
		out:    out,
		maxLen: maxLen,
	}
}

func (b *BufferedReader) SetPrompt(prompt string) {
	b.prompt = prompt
}

func (b *BufferedReader) Close() error {
	return nil
}

// Readline returns the next line without its line terminator. A final line
// without a newline is still returned; io.EOF follows it.
func (b *BufferedReader) Readline() (string, error) {
	fmt.Fprint(b.out, b.prompt)

	var line []byte
	tooLong := false
	for {
		chunk, isPrefix, err := b.in.ReadLine()
		if err != nil {
			if err == io.EOF && (len(line) > 0 || tooLong) {
				break
			}
			return "", err
		}

		if !tooLong {
			line = append(line, chunk...)
			if len(line) > b.maxLen {
				tooLong = true
				line = nil
			}
		}

		if !isPrefix {
			break
		}
	}

	if tooLong {
		return "", ErrLineTooLong
	}
	return string(line), nil
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) {
	return 0, io.EOF
}
