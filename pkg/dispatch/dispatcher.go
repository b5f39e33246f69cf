// Package dispatch maps user commands to invocations of the bootstrapped build system.
package dispatch

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/joba14/lasm/tools/pkg"
	"github.com/joba14/lasm/tools/pkg/bootstrap"
	"github.com/joba14/lasm/tools/pkg/procrun"
)

// Ensurer prepares the build system executable before it's invoked.
type Ensurer interface {
	Ensure(ctx context.Context) error
}

// DelegatedError reports a non-zero exit of the build system itself.
type DelegatedError struct {
	Target Target
	Code   int
	Err    error
}

func (e *DelegatedError) Error() string {
	return fmt.Sprintf("build system target %s failed with exit code %d", e.Target, e.Code)
}

func (e *DelegatedError) Unwrap() error {
	return e.Err
}

// Dispatcher runs build system targets inside the project root.
type Dispatcher struct {
	Root   string
	Binary string
	Boot   Ensurer
	Runner procrun.Runner
}

// New creates a Dispatcher for the executable managed by boot.
func New(boot *bootstrap.Bootstrapper, runner procrun.Runner) *Dispatcher {
	return &Dispatcher{
		Root:   boot.Layout.Root,
		Binary: boot.Layout.BinaryPath(),
		Boot:   boot,
		Runner: runner,
	}
}

var descriptions = map[Target]string{
	TargetClean:        "cleaning the project.",
	TargetBuildRelease: "building the project.",
	TargetBuildDebug:   "building the project.",
	TargetDocs:         "generating documentation.",
	TargetLintRelease:  "linting the project for release.",
	TargetLintDebug:    "linting the project for debug.",
	TargetRunRelease:   "running the project.",
	TargetRunDebug:     "running the project.",
	TargetAll:          "running all targets.",
}

// Dispatch bootstraps the build system and runs target.
func (d *Dispatcher) Dispatch(ctx context.Context, target Target) error {
	if !target.Valid() {
		return eris.Errorf("unknown target %s", target)
	}

	err := d.Boot.Ensure(ctx)
	if err != nil {
		return err
	}

	pkg.Log(ctx).Info().Str("target", target.String()).Msg(descriptions[target])
	res := d.Runner.Run(ctx, procrun.NewCommand(d.Root, d.Binary, target.String()))
	if !res.Success() {
		return &DelegatedError{Target: target, Code: res.Code, Err: res.Err}
	}
	return nil
}

// Clean removes the build artifacts.
func (d *Dispatcher) Clean(ctx context.Context) error {
	return d.Dispatch(ctx, TargetClean)
}

// Build compiles the project in the named configuration.
func (d *Dispatcher) Build(ctx context.Context, config string) error {
	variant, err := ParseVariant(config)
	if err != nil {
		return err
	}
	return d.Dispatch(ctx, BuildTarget(variant))
}

// Docs generates the documentation.
func (d *Dispatcher) Docs(ctx context.Context) error {
	return d.Dispatch(ctx, TargetDocs)
}

// Lint lints the project in the named configuration.
func (d *Dispatcher) Lint(ctx context.Context, config string) error {
	variant, err := ParseVariant(config)
	if err != nil {
		return err
	}
	return d.Dispatch(ctx, LintTarget(variant))
}

// Run executes the built project in the named configuration.
func (d *Dispatcher) Run(ctx context.Context, config string) error {
	variant, err := ParseVariant(config)
	if err != nil {
		return err
	}
	return d.Dispatch(ctx, RunTarget(variant))
}

// All runs every target of the build system in order.
func (d *Dispatcher) All(ctx context.Context) error {
	return d.Dispatch(ctx, TargetAll)
}
