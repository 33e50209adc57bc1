package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/config"
)

// configCommand prints the effective configuration as TOML.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration commands run with, as TOML. Values from --config
that were out of range are shown clamped, with a warning for each. The
output is a valid config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			out, err := config.Encode(cfg)
			if err != nil {
				return err
			}
			_, err = stdout.Write([]byte(out))
			return err
		},
	}
}
