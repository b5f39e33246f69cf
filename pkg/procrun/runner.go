package procrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/syntax"

	"github.com/joba14/lasm/tools/pkg"
)

// ExitFailure is reported for processes that could not be started at all.
const ExitFailure = 1

// Command describes a single process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory. An empty value means the current directory.
	Dir string
	// Env holds additional KEY=value pairs appended to the parent's environment.
	Env []string
}

// NewCommand is a shorthand for a Command without extra environment.
func NewCommand(dir, name string, args ...string) Command {
	return Command{Name: name, Args: args, Dir: dir}
}

// Argv returns the name followed by all arguments.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command as a bash command line.
func (c Command) String() string {
	return QuoteArgs(c.Argv())
}

// Result is the outcome of a finished process.
type Result struct {
	Code int
	Err  error
}

// Success reports whether the process exited with status 0.
func (r Result) Success() bool {
	return r.Code == 0
}

// Runner executes commands synchronously.
type Runner interface {
	// Run streams the child's stdio to the terminal and waits for it to exit.
	Run(ctx context.Context, cmd Command) Result
	// Output works like Run but captures stdout and returns it.
	Output(ctx context.Context, cmd Command) (string, Result)
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	// DryRun only logs the commands, nothing is executed.
	DryRun bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec returns an Exec runner connected to the process' standard streams.
func NewExec(dryRun bool) *Exec {
	return &Exec{
		DryRun: dryRun,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (e *Exec) prepare(ctx context.Context, cmd Command) *exec.Cmd {
	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		proc.Env = append(os.Environ(), cmd.Env...)
	}
	proc.Stdin = e.Stdin
	proc.Stderr = e.Stderr
	return proc
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, cmd Command) Result {
	if e.skip(ctx, cmd) {
		return Result{}
	}

	proc := e.prepare(ctx, cmd)
	proc.Stdout = e.Stdout
	return resultOf(ctx, cmd, proc.Run())
}

// Output implements Runner.
func (e *Exec) Output(ctx context.Context, cmd Command) (string, Result) {
	if e.skip(ctx, cmd) {
		return "", Result{}
	}

	var buf bytes.Buffer
	proc := e.prepare(ctx, cmd)
	proc.Stdout = &buf
	res := resultOf(ctx, cmd, proc.Run())
	return buf.String(), res
}

func (e *Exec) skip(ctx context.Context, cmd Command) bool {
	logger := pkg.Log(ctx)
	if e.DryRun {
		logger.Info().Str("dir", cmd.Dir).Bool("command", true).Msg("+ " + cmd.String())
		return true
	}

	logger.Debug().Str("dir", cmd.Dir).Bool("command", true).Msg("+ " + cmd.String())
	return false
}

func resultOf(ctx context.Context, cmd Command, err error) Result {
	if err == nil {
		return Result{}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return Result{Code: exitErr.ExitCode(), Err: err}
	}

	if ctx.Err() != nil {
		err = ctx.Err()
	}

	return Result{
		Code: ExitFailure,
		Err:  eris.Wrapf(err, "Failed to run %s", cmd.Name),
	}
}

// QuoteArgs joins args into a single command line, quoting every argument that needs it.
func QuoteArgs(args []string) string {
	parts := make([]string, len(args))
	for idx, arg := range args {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", arg)
		}
		parts[idx] = quoted
	}

	return strings.Join(parts, " ")
}
