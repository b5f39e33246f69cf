// Package container runs the build tools inside the development container image.
package container

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"

	"github.com/joba14/lasm/tools/pkg"
	"github.com/joba14/lasm/tools/pkg/procrun"
)

// Inner command modes
const (
	// ModeScript runs <ScriptDir>/<command>.sh inside the container.
	ModeScript = "script"
	// ModeTool re-invokes this tool inside the container.
	ModeTool = "tool"
)

// ExitRuntimeFailure is the code docker run uses when the container could not be started.
const ExitRuntimeFailure = 125

// Commands lists the commands that can be forwarded into the container.
var Commands = []string{"clean", "build", "docs", "lint", "run", "all"}

// ScriptCommands lists the commands that have a <command>.sh script in script mode. The others
// need tool mode.
var ScriptCommands = []string{"clean", "build", "docs", "lint"}

// Settings describe the image and how the container is started.
type Settings struct {
	Runtime    string
	Image      string
	Definition string
	Name       string
	UniqueName bool
	Mount      string
	Shell      string
	Mode       string
	ScriptDir  string
	Tool       string
}

// DefaultSettings returns the settings of the lasm development container.
func DefaultSettings() Settings {
	return Settings{
		Runtime:    "docker",
		Image:      "lasm_development_container_image:0.1",
		Definition: ".dockerfile",
		Name:       "lasm_development_container",
		UniqueName: true,
		Mount:      "/workspace",
		Shell:      "/bin/bash",
		Mode:       ModeScript,
		ScriptDir:  "./scripts",
		Tool:       "./scripts/lasm-tools",
	}
}

// InfraError reports a failure of the container runtime itself.
type InfraError struct {
	Step string
	Code int
	Err  error
}

func (e *InfraError) Error() string {
	msg := fmt.Sprintf("container %s failed (exit code %d)", e.Step, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InfraError) Unwrap() error {
	return e.Err
}

// Wrapper builds the development image when needed and runs commands in it.
type Wrapper struct {
	Root     string
	Settings Settings
	Runner   procrun.Runner
	// NewID generates container name suffixes. Defaults to nanoid.
	NewID func() string
}

// New returns a Wrapper for the project in root.
func New(root string, settings Settings, runner procrun.Runner) *Wrapper {
	return &Wrapper{
		Root:     root,
		Settings: settings,
		Runner:   runner,
		NewID:    nanoid.New,
	}
}

// ImageExists checks the local image list for the configured name:tag.
func (w *Wrapper) ImageExists(ctx context.Context) (bool, error) {
	cmd := procrun.NewCommand(w.Root, w.Settings.Runtime, "images", "--format", "{{.Repository}}:{{.Tag}}")
	out, res := w.Runner.Output(ctx, cmd)
	if !res.Success() {
		return false, &InfraError{Step: "image query", Code: res.Code, Err: res.Err}
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == w.Settings.Image {
			return true, nil
		}
	}
	return false, nil
}

func (w *Wrapper) definitionPath() string {
	if filepath.IsAbs(w.Settings.Definition) {
		return w.Settings.Definition
	}
	return filepath.Join(w.Root, w.Settings.Definition)
}

// BuildImage builds the image from its definition file, using the project root as context.
func (w *Wrapper) BuildImage(ctx context.Context) error {
	pkg.Log(ctx).Info().Str("image", w.Settings.Image).Msg("building the development image.")

	cmd := procrun.NewCommand(w.Root, w.Settings.Runtime, "build", "-f", w.definitionPath(), "-t", w.Settings.Image, w.Root)
	res := w.Runner.Run(ctx, cmd)
	if !res.Success() {
		return &InfraError{Step: "image build", Code: res.Code, Err: res.Err}
	}
	return nil
}

// EnsureImage builds the image unless it's already present.
func (w *Wrapper) EnsureImage(ctx context.Context) error {
	exists, err := w.ImageExists(ctx)
	if err != nil {
		return err
	}

	if exists {
		pkg.Log(ctx).Debug().Str("image", w.Settings.Image).Msg("image already present")
		return nil
	}

	return w.BuildImage(ctx)
}

func contains(list []string, command string) bool {
	for _, known := range list {
		if command == known {
			return true
		}
	}
	return false
}

// InnerCommand returns the shell command line executed inside the container.
func (w *Wrapper) InnerCommand(command string, args []string) (string, error) {
	if !contains(Commands, command) {
		return "", eris.Errorf("invalid command '%s' (must be one of %s)", command, strings.Join(Commands, ", "))
	}

	var line string
	switch w.Settings.Mode {
	case ModeScript:
		if !contains(ScriptCommands, command) {
			return "", eris.Errorf("command '%s' has no script (script mode supports %s; set container.mode = \"tool\")",
				command, strings.Join(ScriptCommands, ", "))
		}
		script := "./" + command + ".sh"
		line = fmt.Sprintf("cd %s && chmod +x %s && %s",
			procrun.QuoteArgs([]string{w.Settings.ScriptDir}),
			procrun.QuoteArgs([]string{script}),
			procrun.QuoteArgs(append([]string{script}, args...)))
	case ModeTool:
		line = procrun.QuoteArgs(append([]string{w.Settings.Tool, command}, args...))
	default:
		return "", eris.Errorf("unknown container mode %s", w.Settings.Mode)
	}

	return line, nil
}

// ContainerName returns the name for a new container.
func (w *Wrapper) ContainerName() string {
	if !w.Settings.UniqueName || w.NewID == nil {
		return w.Settings.Name
	}
	return w.Settings.Name + "-" + w.NewID()
}

// RunCommand returns the runtime invocation that executes line in a fresh container.
func (w *Wrapper) RunCommand(line string) procrun.Command {
	return procrun.NewCommand(w.Root, w.Settings.Runtime,
		"run", "--rm",
		"--name", w.ContainerName(),
		"-v", w.Root+":"+w.Settings.Mount,
		"-w", w.Settings.Mount,
		w.Settings.Image,
		w.Settings.Shell, "-c", line,
	)
}

// Run makes sure the image exists and runs command with args in a new container. The returned code
// is the container's exit status.
func (w *Wrapper) Run(ctx context.Context, command string, args []string) (int, error) {
	line, err := w.InnerCommand(command, args)
	if err != nil {
		return procrun.ExitFailure, err
	}

	err = w.EnsureImage(ctx)
	if err != nil {
		return procrun.ExitFailure, err
	}

	cmd := w.RunCommand(line)
	pkg.Log(ctx).Info().Str("image", w.Settings.Image).Msgf("running %s in the development container.", command)
	res := w.Runner.Run(ctx, cmd)
	switch {
	case res.Success():
		return 0, nil
	case res.Code == ExitRuntimeFailure:
		return res.Code, &InfraError{Step: "run", Code: res.Code, Err: res.Err}
	default:
		return res.Code, nil
	}
}
