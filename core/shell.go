package core

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/tinysh/core/config"
	"github.com/josephlewis42/tinysh/core/jobs"
	"github.com/josephlewis42/tinysh/core/logger"
	"github.com/josephlewis42/tinysh/core/shell"
	"github.com/spf13/afero"
)

const (
	EnvHome = "HOME"
)

// Shell reads lines, splits them into statements and runs them in order.
type Shell struct {
	IO

	Config   *config.Configuration
	Jobs     *jobs.Table
	Launcher *Launcher
	Events   *logger.SessionLogger
	Colors   *ColorPrinter

	// Getenv looks up environment variables, defaults to os.Getenv.
	Getenv func(string) string
	// Chdir changes the working directory, defaults to os.Chdir.
	Chdir func(string) error

	reaped []jobs.Job

	// Set to true to quit the shell
	Quit bool
}

// Option customizes a Shell.
type Option func(*Shell)

// WithWaiter replaces the waiter used to poll background jobs.
func WithWaiter(w jobs.Waiter) Option {
	return func(s *Shell) {
		s.Jobs = jobs.New(s.Config.MaxJobs, w)
	}
}

// WithFs replaces the filesystem used to open redirection targets.
func WithFs(fs afero.Fs) Option {
	return func(s *Shell) {
		s.Launcher.Fs = fs
	}
}

// NewShell creates a shell around the given streams.
func NewShell(cfg *config.Configuration, streams IO, events *logger.SessionLogger, opts ...Option) *Shell {
	if events == nil {
		events = logger.Nop().Sessionless()
	}

	s := &Shell{
		IO:     streams,
		Config: cfg,
		Jobs:   jobs.New(cfg.MaxJobs, jobs.OSWaiter{}),
		Events: events,
		Colors: NewColorPrinter(cfg.Color, streams.Stdout),
		Getenv: os.Getenv,
		Chdir:  os.Chdir,
	}
	s.Launcher = &Launcher{
		IO:     streams,
		Fs:     afero.NewOsFs(),
		Events: events,
		Colors: s.Colors,
		Reaped: s.collect,
	}

	for _, opt := range opts {
		opt(s)
	}
	s.Launcher.Jobs = s.Jobs

	return s
}

func (s *Shell) collect(reaped []jobs.Job) {
	s.reaped = append(s.reaped, reaped...)
}

func (s *Shell) record(err error) {
	if err != nil {
		s.Colors.Warnf(s.Stderr, "warning: couldn't record event: %v", err)
	}
}

// ReapJobs reclaims finished background jobs and announces them.
func (s *Shell) ReapJobs() {
	s.collect(s.Jobs.Reap())

	for _, job := range s.reaped {
		s.record(s.Events.JobReaped(job.Pid))
		if s.Config.NotifyDone {
			fmt.Fprintf(s.Stdout, "[PID %d] Done\n", job.Pid)
		}
	}
	s.reaped = nil
}

func (s *Shell) prompt() string {
	return s.Colors.Prompt(s.Config.Prompt)
}

// LineReader is the source of input lines.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// Run reads and executes lines until the input ends or the shell is asked
// to quit.
func (s *Shell) Run(reader LineReader) error {
	for !s.Quit {
		s.ReapJobs()

		reader.SetPrompt(s.prompt())
		line, err := reader.Readline()

		switch {
		case err == io.EOF:
			return nil // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case errors.Is(err, ErrLineTooLong):
			s.Colors.Errorf(s.Stderr, "tinysh: %v", err)
			continue

		case err != nil:
			return err

		default:
			s.RunLine(line)
		}
	}
	return nil
}

// RunLine executes the statements of a line from left to right. Foreground
// statements finish before the next one starts.
func (s *Shell) RunLine(line string) {
	for _, stmt := range shell.Split(line) {
		if s.Quit {
			return
		}
		s.runStatement(stmt)
	}
}

func (s *Shell) runStatement(stmt shell.Statement) {
	// Builtins must run in the shell's own process, which isn't possible
	// for a pipeline stage.
	if !stmt.IsPipeline() {
		cmd := stmt.First()
		if builtin, ok := AllBuiltins[cmd.Name()]; ok {
			s.record(s.Events.Builtin(cmd.Args))
			builtin.Main(s, cmd.Args)
			return
		}
	}

	s.record(s.Events.RunCommand(stmt.Args(), stmt.Background(), len(stmt.Stages)))
	s.Launcher.LaunchPipeline(stmt)
}
