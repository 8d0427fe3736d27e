package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinNames returns the sorted names of all builtins.
func BuiltinNames() []string {
	var names []string
	for k := range AllBuiltins {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Cd is the cd shell builtin. Without arguments it changes to $HOME, extra
// arguments after the directory are ignored.
func Cd(s *Shell, args []string) int {
	dir := ""
	if len(args) > 1 {
		dir = args[1]
	} else {
		dir = s.Getenv(EnvHome)
	}

	if dir == "" {
		return 0
	}

	if err := s.Chdir(dir); err != nil {
		s.Colors.Errorf(s.Stderr, "%s: %v", args[0], err)
		return 1
	}
	return 0
}

// Exit quits the shell without waiting for background jobs.
func Exit(s *Shell, args []string) int {
	if s.Config.ExitMessage != "" {
		fmt.Fprintln(s.Stdout, s.Config.ExitMessage)
	}
	s.Quit = true
	return 0
}

// Jobs lists the tracked background jobs.
func Jobs(s *Shell, args []string) int {
	opts := getopt.New()
	pidsOnly := opts.Bool('p', "list process IDs only")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.Stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: jobs [-p]")
		fmt.Fprintln(w, "Display the status of background jobs.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		if err != nil {
			return 1
		}
		return 0
	}

	// Show only jobs that are still running.
	s.ReapJobs()

	for _, job := range s.Jobs.List() {
		if *pidsOnly {
			fmt.Fprintln(s.Stdout, job.Pid)
			continue
		}
		fmt.Fprintf(s.Stdout, "[%d] %d\t%s\n", job.Seq, job.Pid, strings.Join(job.Args, " "))
	}
	return 0
}

// Help lists the builtins and operators.
func Help(s *Shell, args []string) int {
	w := s.Stdout
	fmt.Fprintln(w, "These shell commands are defined internally.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Join(BuiltinNames(), "\n"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Operators: ; separates statements, | connects stages,")
	fmt.Fprintln(w, "< FILE reads input, > FILE writes output, & runs in the background.")

	return 0
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
	AllBuiltins["quit"] = ShellBuiltinFunc(Exit)
	AllBuiltins["jobs"] = ShellBuiltinFunc(Jobs)
	AllBuiltins["help"] = ShellBuiltinFunc(Help)
}
