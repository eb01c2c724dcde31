package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/soyeahso/agentchat/internal/config"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths     config.Paths
	log       *logging.Logger
	logCloser io.Closer
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentchat",
		Short: "agentchat - chat page and proxy for a remote hospital NPI agent",
		Long: "agentchat serves a chat page that talks to a remote AG-UI agent through a local proxy route,\n" +
			"and exposes NPPES / CMS facility lookups on the command line and over MCP.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			// a broken config file must not stop `config set` from repairing it
			cfg, err := config.Load(paths.Config)
			if err != nil {
				cfg = config.Defaults()
			}
			opts := logging.Options{
				Level: cfg.Logging.Level,
				Style: cfg.Logging.ConsoleStyle,
				File:  cfg.Logging.File,
			}
			if logLevel != "" {
				opts.Level = logLevel
			}
			log, logCloser, err = logging.Open(cmd.ErrOrStderr(), opts)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.agentchat/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newAgentsCmd())
	cmd.AddCommand(newFacilityCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
