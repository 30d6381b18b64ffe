package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCmd creates a new root command for compactctl.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "compactctl",
		Short:         "Offline tooling for compact resource locks and claims",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// set the default command outputs
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			cfg, err := ReadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	addConfigFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		LockIDCmd(),
		AllocatorIDCmd(),
		AddressCmd(),
		HashCmd(),
		ServeCmd(),
	)
	return rootCmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
