package cli

import (
	"encoding/json"
	"fmt"

	"github.com/soyeahso/agentchat/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of agentchat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(version.Current())
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build metadata as JSON")
	return cmd
}
