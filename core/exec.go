package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/josephlewis42/tinysh/core/jobs"
	"github.com/josephlewis42/tinysh/core/logger"
	"github.com/josephlewis42/tinysh/core/shell"
	"github.com/spf13/afero"
)

// OutputFileMode is the permission used when output redirection creates a
// file.
const OutputFileMode = 0644

// IO holds the standard streams handed to child processes.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// OSIO returns the streams of the current process.
func OSIO() IO {
	return IO{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Launcher starts external commands.
type Launcher struct {
	IO

	// Fs is used to open redirection targets. Children get file descriptors
	// directly when it's backed by the OS.
	Fs     afero.Fs
	Jobs   *jobs.Table
	Events *logger.SessionLogger
	Colors *ColorPrinter

	// Reaped is called with jobs reclaimed while registering a new one.
	Reaped func([]jobs.Job)
}

// closers closes everything it holds, in order, at most once.
type closers []io.Closer

func (c *closers) add(closer io.Closer) {
	*c = append(*c, closer)
}

func (c *closers) Close() error {
	var lastErr error
	for _, v := range *c {
		if err := v.Close(); err != nil {
			lastErr = err
		}
	}
	*c = nil
	return lastErr
}

// releaseFiles closes the parent's copies of descriptors handed to children.
// Other closers are kept because exec copies from them until Wait returns.
func (c *closers) releaseFiles() {
	kept := (*c)[:0]
	for _, v := range *c {
		if fd, ok := v.(*os.File); ok {
			fd.Close()
			continue
		}
		kept = append(kept, v)
	}
	*c = kept
}

// detach hands the remaining closers to the caller, who becomes responsible
// for closing them.
func (c *closers) detach() closers {
	out := *c
	*c = nil
	return out
}

// closeAfter closes toClose once every proc has exited and exec has
// finished copying its output. Nothing is waited on if toClose is empty.
func closeAfter(procs []*exec.Cmd, toClose closers) {
	if len(toClose) == 0 {
		return
	}

	go func() {
		for _, proc := range procs {
			proc.Wait()
		}
		toClose.Close()
	}()
}

// openInput opens path for reading as a child's stdin.
func (l *Launcher) openInput(path string, toClose *closers) (io.Reader, error) {
	fd, err := l.Fs.Open(path)
	if err != nil {
		return nil, err
	}
	toClose.add(fd)
	return fd, nil
}

// openOutput creates or truncates path as a child's stdout.
func (l *Launcher) openOutput(path string, toClose *closers) (io.Writer, error) {
	fd, err := l.Fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, OutputFileMode)
	if err != nil {
		return nil, err
	}
	toClose.add(fd)
	return fd, nil
}

// start resolves and starts a program with the given streams.
func (l *Launcher) start(args []string, stdin io.Reader, stdout io.Writer) (*exec.Cmd, error) {
	proc := exec.Command(args[0], args[1:]...)
	proc.Stdin = stdin
	proc.Stdout = stdout
	proc.Stderr = l.Stderr

	if err := proc.Start(); err != nil {
		return nil, err
	}
	return proc, nil
}

// failed reports a command or stage that couldn't be started.
func (l *Launcher) failed(args []string, operation string, err error) {
	l.Colors.Errorf(l.Stderr, "%s: %v", operation, err)
	l.record(l.Events.SpawnError(args, err))
}

func (l *Launcher) record(err error) {
	if err != nil {
		l.Colors.Warnf(l.Stderr, "warning: couldn't record event: %v", err)
	}
}

// Launch runs a single external command, waiting for it unless it's marked
// as a background command.
func (l *Launcher) Launch(cmd shell.Command) {
	if cmd.Empty() {
		return
	}

	var toClose closers
	defer toClose.Close()

	var stdin io.Reader = l.Stdin
	var stdout io.Writer = l.Stdout
	if cmd.InputPath != "" {
		in, err := l.openInput(cmd.InputPath, &toClose)
		if err != nil {
			l.failed(cmd.Args, "Input file error", err)
			return
		}
		stdin = in
	}
	if cmd.OutputPath != "" {
		out, err := l.openOutput(cmd.OutputPath, &toClose)
		if err != nil {
			l.failed(cmd.Args, "Output file error", err)
			return
		}
		stdout = out
	}

	proc, err := l.start(cmd.Args, stdin, stdout)
	if err != nil {
		l.failed(cmd.Args, "Command execution failed", err)
		return
	}

	// The child has its own copies now.
	toClose.releaseFiles()

	if cmd.Background {
		// Files from other filesystems are fed by exec until the job exits.
		pending := toClose.detach()
		l.track(proc, len(pending) > 0)
		closeAfter([]*exec.Cmd{proc}, pending)
		return
	}
	l.wait(proc)
}

// wait blocks until proc exits and its output has been fully copied.
// The exit status is only recorded, never propagated.
func (l *Launcher) wait(proc *exec.Cmd) {
	err := proc.Wait()

	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.As(err, &exitErr):
		l.record(l.Events.CommandExit(proc.Args, proc.ProcessState.ExitCode()))
	default:
		l.Colors.Errorf(l.Stderr, "Wait failed: %v", err)
	}
}

// track hands a started background process over to the job table. If
// collected is set the caller waits on proc itself.
func (l *Launcher) track(proc *exec.Cmd, collected bool) {
	pid := proc.Process.Pid
	fmt.Fprintf(l.Stdout, "[PID %d] Running in background\n", pid)

	_, reaped, err := l.Jobs.Register(pid, proc.Args)
	if len(reaped) > 0 && l.Reaped != nil {
		l.Reaped(reaped)
	}

	if err != nil {
		l.Colors.Warnf(l.Stderr, "warning: %v (%d jobs), PID %d is not tracked", err, l.Jobs.Capacity(), pid)
		l.record(l.Events.JobUntracked(pid))

		// Still collect the process so it doesn't linger as a zombie.
		if !collected {
			go proc.Wait()
		}
		return
	}

	l.record(l.Events.JobStarted(pid, proc.Args))
	if collected {
		// Whichever of Wait and the job table's waiter runs first collects
		// the exit status; the other sees ECHILD.
		return
	}
	// From here on the job table's waiter collects the exit status.
	proc.Process.Release()
}
