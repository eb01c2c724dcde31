package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/soyeahso/agentchat/internal/agents"
	"github.com/spf13/cobra"
)

func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect the registered remote agents",
	}

	cmd.AddCommand(newAgentsListCmd())
	return cmd
}

func newAgentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered agents; the page's agent is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := agents.New(cfg.Agents)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range reg.Names() {
				a, _ := reg.Lookup(name)
				mark := " "
				if name == cfg.Runtime.Agent {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%s\n", mark, a.Name, a.URL, a.Description)
			}
			return tw.Flush()
		},
	}
}
