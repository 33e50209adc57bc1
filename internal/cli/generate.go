package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/profile"
)

// generateCommand writes a synthetic profile set.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output string
		opts   profile.GenerateOptions
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic family tree",
		Long: `Generate a deterministic synthetic profile set for demos and load tests.
The same --seed always produces the same tree. The format follows the
extension of --output: .yaml or .yml for YAML, JSON otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Count <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--count must be positive, got %d", opts.Count)
			}
			profiles := profile.Generate(opts)
			if err := profile.WriteFile(output, profiles); err != nil {
				return err
			}
			printSuccess("Generated %d profiles", len(profiles))
			printFile(output)
			printNextStep("Lay out", appName+" layout "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "profiles.json", "output file (.json, .yaml)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1000, "number of profiles")
	cmd.Flags().IntVar(&opts.Roots, "roots", 0, "generation-1 roots (default: one per 2000 profiles)")
	cmd.Flags().IntVar(&opts.MaxChildren, "max-children", 4, "maximum children per family")
	cmd.Flags().Float64Var(&opts.SpouseRate, "spouse-rate", 0.5, "probability a parent has a married-in spouse")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed")
	return cmd
}
