// Package bootstrap compiles the native build system from its single source file.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/joba14/lasm/tools/pkg"
	"github.com/joba14/lasm/tools/pkg/procrun"
)

// Policy decides when an existing executable has to be rebuilt.
type Policy string

const (
	// PolicyNone trusts any existing executable.
	PolicyNone Policy = "none"
	// PolicyMtime rebuilds when the source is newer than the executable.
	PolicyMtime Policy = "mtime"
	// PolicyHash rebuilds when the source or compiler invocation differs from the recorded stamp.
	PolicyHash Policy = "hash"
)

// Layout locates the bootstrap artifacts. All paths except Root are relative to Root.
type Layout struct {
	Root   string
	Source string
	Binary string
	Backup string
	Stamp  string
}

// DefaultLayout returns the standard file names inside root.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:   root,
		Source: "build.c",
		Binary: "build.bin",
		Backup: "build.bin.old",
		Stamp:  "build.bin.stamp",
	}
}

func (l Layout) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.Root, name)
}

// SourcePath is the absolute path of the build system source.
func (l Layout) SourcePath() string { return l.path(l.Source) }

// BinaryPath is the absolute path of the bootstrapped executable.
func (l Layout) BinaryPath() string { return l.path(l.Binary) }

// BackupPath is the absolute path of the stale backup executable.
func (l Layout) BackupPath() string { return l.path(l.Backup) }

// StampPath is the absolute path of the stamp file.
func (l Layout) StampPath() string { return l.path(l.Stamp) }

// Compiler is the C compiler invocation used to bootstrap.
type Compiler struct {
	Command string
	Flags   []string
}

// DefaultCompiler is gcc in strict GNU11 mode with all warnings treated as errors.
func DefaultCompiler() Compiler {
	return Compiler{
		Command: "gcc",
		Flags:   []string{"-std=gnu11", "-Wall", "-Wextra", "-Werror"},
	}
}

// Invocation returns the command that compiles l's source into l's executable.
func (c Compiler) Invocation(l Layout) procrun.Command {
	args := make([]string, 0, len(c.Flags)+3)
	args = append(args, c.Flags...)
	args = append(args, "-o", l.BinaryPath(), l.SourcePath())
	return procrun.NewCommand(l.Root, c.Command, args...)
}

// Error is returned when the compiler fails.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("failed to bootstrap the build system (compiler exited with code %d)", e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Bootstrapper makes sure the build system executable exists.
type Bootstrapper struct {
	Layout   Layout
	Compiler Compiler
	Runner   procrun.Runner
	Policy   Policy
	// Force rebuilds the executable even if it's considered current.
	Force bool
	// DryRun only logs the file operations; the Runner is expected to be in dry-run mode as well.
	DryRun bool
}

// New returns a Bootstrapper with the default compiler and policy.
func New(layout Layout, runner procrun.Runner) *Bootstrapper {
	return &Bootstrapper{
		Layout:   layout,
		Compiler: DefaultCompiler(),
		Runner:   runner,
		Policy:   PolicyNone,
	}
}

// Ensure compiles the executable unless an up-to-date one already exists.
func (b *Bootstrapper) Ensure(ctx context.Context) error {
	logger := pkg.Log(ctx)
	binPath := b.Layout.BinaryPath()

	current, err := b.isCurrent()
	if err != nil {
		return err
	}

	if current && !b.Force {
		logger.Debug().Str("path", binPath).Msg("build system already bootstrapped")
		return nil
	}

	logger.Info().Str("path", b.Layout.BackupPath()).Msg("removing build system.")
	if err := b.remove(ctx, b.Layout.BackupPath()); err != nil {
		return err
	}

	_, statErr := os.Stat(binPath)
	existed := statErr == nil

	logger.Info().Str("path", binPath).Msg("bootstrapping the build system.")
	invocation := b.Compiler.Invocation(b.Layout)
	res := b.Runner.Run(ctx, invocation)
	if !res.Success() {
		// a previously working executable is kept; only output created by this compile is removed
		if !existed {
			if rmErr := b.remove(ctx, binPath); rmErr != nil {
				logger.Warn().Err(rmErr).Str("path", binPath).Msg("failed to remove partial output")
			}
		}
		return &Error{Code: res.Code, Err: res.Err}
	}

	if b.DryRun {
		return nil
	}

	err = os.Chmod(binPath, 0o755)
	if err != nil {
		return eris.Wrapf(err, "Failed to mark %s as executable", binPath)
	}

	if b.Policy == PolicyHash {
		err = writeStamp(b.Layout, invocation)
		if err != nil {
			return err
		}
	}

	return nil
}

func (b *Bootstrapper) isCurrent() (bool, error) {
	binPath := b.Layout.BinaryPath()
	binInfo, err := os.Stat(binPath)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, eris.Wrapf(err, "Failed to check %s", binPath)
	}

	if !binInfo.Mode().IsRegular() {
		return false, nil
	}

	switch b.Policy {
	case PolicyMtime:
		srcPath := b.Layout.SourcePath()
		srcInfo, err := os.Stat(srcPath)
		if err != nil {
			return false, eris.Wrapf(err, "Failed to check %s", srcPath)
		}

		return !srcInfo.ModTime().After(binInfo.ModTime()), nil
	case PolicyHash:
		return stampMatches(b.Layout, b.Compiler.Invocation(b.Layout))
	default:
		return true, nil
	}
}

func (b *Bootstrapper) remove(ctx context.Context, path string) error {
	if b.DryRun {
		pkg.Log(ctx).Info().Bool("command", true).Msg("+ " + procrun.QuoteArgs([]string{"rm", "-f", path}))
		return nil
	}

	err := os.Remove(path)
	if err != nil && !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "Could not delete %s", path)
	}
	return nil
}
