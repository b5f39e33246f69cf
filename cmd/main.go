// Package cmd implements the lasm-tools command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joba14/lasm/tools/pkg"
	"github.com/joba14/lasm/tools/pkg/bootstrap"
	"github.com/joba14/lasm/tools/pkg/config"
	"github.com/joba14/lasm/tools/pkg/container"
	"github.com/joba14/lasm/tools/pkg/dispatch"
	"github.com/joba14/lasm/tools/pkg/procrun"
)

// Exit codes of the CLI
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ExitError makes the process exit with Code. A nil Err means the failure was already reported.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// app holds everything the subcommands need. It's filled in by the root command's PersistentPreRunE.
type app struct {
	ctx    context.Context
	logger zerolog.Logger
	root   string
	cfg    *config.Config
	runner procrun.Runner
	dryRun bool
	force  bool
}

// newRunner creates the process runner used by all commands.
var newRunner = func(dryRun bool) procrun.Runner {
	return procrun.NewExec(dryRun)
}

var state = &app{
	ctx:    context.Background(),
	logger: zerolog.New(NewConsoleWriter(os.Stderr)).Level(zerolog.InfoLevel),
}

var rootCmd = &cobra.Command{
	Use:   "lasm-tools",
	Short: "Build tools for lasm",
	Long: `This command bootstraps the build system from build.c and forwards clean, build,
docs and lint to it. The docker subcommands run the same commands inside the
development container.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return state.init(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("root", "", "project root (default: the nearest parent directory containing "+pkg.RootMarker+", or $LASM_ROOT)")
	flags.String("config-file", "", "config file (default: <root>/"+config.FileName+")")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	flags.Bool("rebuild", false, "always bootstrap the build system, even if the executable exists")
}

func (a *app) init(cmd *cobra.Command) error {
	flags := cmd.Flags()
	rootFlag, err := flags.GetString("root")
	if err != nil {
		return err
	}
	if rootFlag == "" {
		rootFlag = os.Getenv("LASM_ROOT")
	}

	configFile, err := flags.GetString("config-file")
	if err != nil {
		return err
	}

	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return err
	}

	a.dryRun, err = flags.GetBool("dry")
	if err != nil {
		return err
	}

	a.force, err = flags.GetBool("rebuild")
	if err != nil {
		return err
	}

	a.root, err = pkg.ResolveProjectRoot(rootFlag, pkg.RootMarker)
	if err != nil {
		return err
	}

	a.cfg, err = config.Load(a.root, configFile)
	if err != nil {
		return err
	}

	if logLevel != "" {
		if err := a.cfg.SetLogLevel(logLevel); err != nil {
			return err
		}
	}

	if a.cfg.Log.JSON {
		a.logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		a.logger = zerolog.New(NewConsoleWriter(os.Stderr))
	}
	a.logger = a.logger.Level(a.cfg.LogLevel())

	a.ctx = pkg.WithLogger(cmd.Context(), &a.logger)
	a.runner = newRunner(a.dryRun)
	a.logger.Debug().Str("path", a.root).Msg("project root " + a.root)
	return nil
}

func (a *app) layout() bootstrap.Layout {
	return bootstrap.Layout{
		Root:   a.root,
		Source: a.cfg.Paths.Source,
		Binary: a.cfg.Paths.Binary,
		Backup: a.cfg.Paths.Backup,
		Stamp:  a.cfg.Paths.Stamp,
	}
}

func (a *app) bootstrapper() *bootstrap.Bootstrapper {
	boot := bootstrap.New(a.layout(), a.runner)
	boot.Compiler = bootstrap.Compiler{
		Command: a.cfg.Compiler.Command,
		Flags:   a.cfg.Compiler.Flags,
	}
	boot.Policy = bootstrap.Policy(a.cfg.Bootstrap.Stale)
	boot.Force = a.force
	boot.DryRun = a.dryRun
	return boot
}

func (a *app) dispatcher() *dispatch.Dispatcher {
	return dispatch.New(a.bootstrapper(), a.runner)
}

func (a *app) wrapper() *container.Wrapper {
	c := a.cfg.Container
	return container.New(a.root, container.Settings{
		Runtime:    c.Runtime,
		Image:      c.Image,
		Definition: c.Definition,
		Name:       c.Name,
		UniqueName: c.UniqueName,
		Mount:      c.Mount,
		Shell:      c.Shell,
		Mode:       c.Mode,
		ScriptDir:  c.ScriptDir,
		Tool:       c.Tool,
	}, a.runner)
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

func reportError(logger zerolog.Logger, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	if os.Getenv(debugEnv) != "" {
		logger.Error().Err(err).Msg("command failed")
		return
	}
	logger.Error().Msg(err.Error())
}

// Execute runs the command line and returns the exit code.
func Execute() int {
	return run(os.Args[1:])
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		reportError(state.logger, err)
	}
	return exitCode(err)
}
