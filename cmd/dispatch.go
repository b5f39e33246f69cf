package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joba14/lasm/tools/pkg/dispatch"
)

var configUsage = func() string {
	names := []string{}
	for _, v := range dispatch.Variants() {
		names = append(names, v.String())
	}
	return "build configuration (" + strings.Join(names, " or ") + ")"
}()

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the build directory with all its artefacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return state.dispatcher().Clean(state.ctx)
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		return state.dispatcher().Build(state.ctx, config)
	},
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate the documentation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return state.dispatcher().Docs(state.ctx)
	},
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Lint the project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		return state.dispatcher().Lint(state.ctx, config)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built project on the bundled example",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		return state.dispatcher().Run(state.ctx, config)
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run clean, prep, debug and release one after the other",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return state.dispatcher().All(state.ctx)
	},
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Only compile the build system executable",
	Long: `Compiles build.c into build.bin unless the executable is already present.
Pass --rebuild to always recompile.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return state.bootstrapper().Ensure(state.ctx)
	},
}

func init() {
	for _, c := range []*cobra.Command{buildCmd, lintCmd, runCmd} {
		c.Flags().String("config", dispatch.Release.String(), configUsage)
	}

	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(bootstrapCmd)
}
