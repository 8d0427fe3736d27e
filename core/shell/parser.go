// Package shell turns raw input lines into commands ready to launch.
//
// Parsing follows a much smaller grammar than POSIX sh:
//
//  1. The line is split into statements on ';'.
//  2. Each statement is split into pipeline stages on '|'.
//  3. Each stage is split into words on whitespace, there is no quoting.
//  4. The redirection operators '<' and '>' take the following word as a
//     path and '&' marks the command as a background command.
//
// Malformed input is never an error: a trailing operator is dropped and
// empty commands are discarded.
package shell

import (
	"strings"
)

// Operators recognized by the parser.
const (
	OpStatement   = ";"
	OpPipe        = "|"
	OpRedirectIn  = "<"
	OpRedirectOut = ">"
	OpBackground  = "&"
)

// Command describes a single program invocation.
type Command struct {
	// Args holds the program name followed by its arguments.
	Args []string
	// InputPath is the file to read stdin from, empty if not redirected.
	InputPath string
	// OutputPath is the file to write stdout to, empty if not redirected.
	OutputPath string
	// Background is set if the command shouldn't be waited on.
	Background bool
}

// Empty returns true if the command has nothing to run.
func (c Command) Empty() bool {
	return len(c.Args) == 0
}

// Name returns the program name or the empty string for empty commands.
func (c Command) Name() string {
	if c.Empty() {
		return ""
	}
	return c.Args[0]
}

// Build constructs a Command from the words of a single stage.
//
// A redirection operator consumes the next word even if that word is itself
// an operator, so "cat < > out" reads from a file named ">".
func Build(tokens []string) Command {
	var cmd Command
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case OpRedirectIn:
			if i+1 < len(tokens) {
				i++
				cmd.InputPath = tokens[i]
			}
		case OpRedirectOut:
			if i+1 < len(tokens) {
				i++
				cmd.OutputPath = tokens[i]
			}
		case OpBackground:
			cmd.Background = true
		default:
			cmd.Args = append(cmd.Args, tokens[i])
		}
	}
	return cmd
}

// Statement is one or more commands chained stdout to stdin.
type Statement struct {
	Stages []Command
}

// IsPipeline returns true if the statement has more than one stage.
func (s Statement) IsPipeline() bool {
	return len(s.Stages) > 1
}

// First returns the stage that reads the statement's input.
func (s Statement) First() Command {
	return s.Stages[0]
}

// Last returns the stage that writes the statement's output.
func (s Statement) Last() Command {
	return s.Stages[len(s.Stages)-1]
}

// Background returns true if the statement shouldn't be waited on. Only the
// last stage's flag counts.
func (s Statement) Background() bool {
	return s.Last().Background
}

// Args returns all stage arguments joined by the pipe operator, used for
// display.
func (s Statement) Args() []string {
	var out []string
	for i, stage := range s.Stages {
		if i > 0 {
			out = append(out, OpPipe)
		}
		out = append(out, stage.Args...)
	}
	return out
}

// ParseStatement parses a single statement, empty stages are dropped. A
// background marker on a dropped stage moves to the stage before it, so
// "sleep 5 | &" still runs in the background.
func ParseStatement(segment string) Statement {
	var stmt Statement
	for _, stage := range strings.Split(segment, OpPipe) {
		cmd := Build(Tokenize(stage))
		if cmd.Empty() {
			if cmd.Background && len(stmt.Stages) > 0 {
				stmt.Stages[len(stmt.Stages)-1].Background = true
			}
			continue
		}
		stmt.Stages = append(stmt.Stages, cmd)
	}
	return stmt
}

// Split parses a full input line into statements in execution order.
// Statements without any commands are omitted.
func Split(line string) []Statement {
	var out []Statement
	for _, segment := range strings.Split(line, OpStatement) {
		stmt := ParseStatement(segment)
		if len(stmt.Stages) == 0 {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
