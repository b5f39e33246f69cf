package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type effectiveConfig struct {
	Root      string      `yaml:"root"`
	DryRun    bool        `yaml:"dry_run"`
	Rebuild   bool        `yaml:"rebuild"`
	Bootstrap interface{} `yaml:"bootstrap"`
	Config    interface{} `yaml:"config"`
}

var showConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		layout := state.layout()
		out := effectiveConfig{
			Root:    state.root,
			DryRun:  state.dryRun,
			Rebuild: state.force,
			Bootstrap: map[string]string{
				"source": layout.SourcePath(),
				"binary": layout.BinaryPath(),
				"backup": layout.BackupPath(),
				"stamp":  layout.StampPath(),
			},
			Config: state.cfg,
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return eris.Wrap(err, "failed to encode config")
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(showConfigCmd)
}
