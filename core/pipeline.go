package core

import (
	"io"
	"os"
	"os/exec"

	"github.com/josephlewis42/tinysh/core/shell"
)

// LaunchPipeline runs every stage of stmt as its own process, connecting
// each stage's stdout to the next stage's stdin with an OS pipe.
//
// Only the first stage's input redirection and the last stage's output
// redirection and background flag are honored. A stage that can't be
// started is reported and skipped; its neighbors keep running and see
// end-of-input or a closed pipe.
func (l *Launcher) LaunchPipeline(stmt shell.Statement) {
	switch len(stmt.Stages) {
	case 0:
		return
	case 1:
		l.Launch(stmt.First())
		return
	}

	// Holds the parent's copies of every pipe end and redirected file.
	var toClose closers
	defer toClose.Close()

	last := len(stmt.Stages) - 1
	var started []*exec.Cmd
	var upstream io.Reader = l.Stdin

	for i, stage := range stmt.Stages {
		stdin := upstream
		var stdout io.Writer = l.Stdout

		if i < last {
			r, w, err := os.Pipe()
			if err != nil {
				l.failed(stage.Args, "Pipe creation failed", err)
				break
			}
			toClose.add(r)
			toClose.add(w)
			stdout = w
			upstream = r
		}

		if i == 0 && stage.InputPath != "" {
			in, err := l.openInput(stage.InputPath, &toClose)
			if err != nil {
				l.failed(stage.Args, "Input file error", err)
				continue
			}
			stdin = in
		}
		if i == last && stage.OutputPath != "" {
			out, err := l.openOutput(stage.OutputPath, &toClose)
			if err != nil {
				l.failed(stage.Args, "Output file error", err)
				continue
			}
			stdout = out
		}

		proc, err := l.start(stage.Args, stdin, stdout)
		if err != nil {
			l.failed(stage.Args, "Command execution failed", err)
			continue
		}
		started = append(started, proc)
	}

	// A reader only sees end-of-input once every write end is closed,
	// including the parent's.
	toClose.releaseFiles()

	if stmt.Background() {
		pending := toClose.detach()
		for _, proc := range started {
			l.track(proc, len(pending) > 0)
		}
		closeAfter(started, pending)
		return
	}

	for _, proc := range started {
		l.wait(proc)
	}
}
