package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/joba14/lasm/tools/pkg/container"
	"github.com/joba14/lasm/tools/pkg/dispatch"
)

var dockerCmd = &cobra.Command{
	Use:   "docker",
	Short: "Run a command inside the development container",
	Long: `Builds the development image from .dockerfile if it's missing and runs the
given command in a fresh container with the project mounted at /workspace.
Positional arguments are forwarded unchanged. Arguments starting with a dash
have to follow -- (e.g. "docker build -- --verbose").
run and all need container.mode = "tool".`,
}

var rebuildImageCmd = &cobra.Command{
	Use:   "rebuild-image",
	Short: "Build the development image even if it already exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return state.wrapper().BuildImage(state.ctx)
	},
}

// takesConfig lists the commands that accept --config.
var takesConfig = map[string]bool{
	"build": true,
	"lint":  true,
	"run":   true,
}

func newDockerSubcommand(name string) *cobra.Command {
	sub := &cobra.Command{
		Use:   name + " [-- args...]",
		Short: "Run " + name + " inside the development container (dash arguments go after --)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			forward := []string{}
			if takesConfig[name] && cmd.Flags().Changed("config") {
				config, err := cmd.Flags().GetString("config")
				if err != nil {
					return err
				}

				// fail before building any image
				if _, err := dispatch.ParseVariant(config); err != nil {
					return err
				}
				forward = append(forward, "--config", config)
			}
			forward = append(forward, args...)

			code, err := state.wrapper().Run(state.ctx, name, forward)
			if err != nil {
				if code == 0 {
					code = ExitFailure
				}
				return &ExitError{Code: code, Err: err}
			}

			if code != 0 {
				return &ExitError{Code: code, Err: eris.Errorf("%s failed inside the container with exit code %d", name, code)}
			}
			return nil
		},
	}

	if takesConfig[name] {
		sub.Flags().String("config", dispatch.Release.String(), configUsage)
	}
	return sub
}

func init() {
	for _, name := range container.Commands {
		dockerCmd.AddCommand(newDockerSubcommand(name))
	}
	dockerCmd.AddCommand(rebuildImageCmd)

	rootCmd.AddCommand(dockerCmd)
}
