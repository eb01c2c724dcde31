package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soyeahso/agentchat/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set configuration values",
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigUnsetCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value, e.g. runtime.agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := config.ParseKeyPath(args[0])
			if err != nil {
				return err
			}
			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				return err
			}
			val, ok := key.Get(raw)
			if !ok {
				return fmt.Errorf("key %q not found", key)
			}
			return printValue(cmd.OutOrStdout(), val)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := parseValue(args[1])
			err := editConfig(cmd, args[0], func(raw map[string]any, key config.KeyPath) error {
				key.Set(raw, value)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", args[0], value)
			return nil
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := editConfig(cmd, args[0], func(raw map[string]any, key config.KeyPath) error {
				if !key.Unset(raw) {
					return fmt.Errorf("key %q not found", key)
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])
			return nil
		},
	}
}

// editConfig applies edit to the raw config file and writes it back, unless
// the result no longer decodes. Validation problems are reported but saved,
// so a config can be repaired one key at a time.
func editConfig(cmd *cobra.Command, rawKey string, edit func(map[string]any, config.KeyPath) error) error {
	key, err := config.ParseKeyPath(rawKey)
	if err != nil {
		return err
	}
	raw, err := config.LoadRaw(paths.Config)
	if err != nil {
		return err
	}
	if err := edit(raw, key); err != nil {
		return err
	}

	cfg, err := config.DecodeRaw(raw)
	if err != nil {
		return fmt.Errorf("not saved: %w", err)
	}
	for _, issue := range config.Validate(&cfg) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", issue)
	}
	return config.SaveRaw(paths.Config, raw)
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), paths.Config)
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the merged configuration for problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			issues := config.Validate(&cfg)
			if len(issues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Config OK")
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", issue)
			}
			return fmt.Errorf("%d validation issue(s)", len(issues))
		},
	}
}

// printValue writes scalars as-is and nested values as YAML.
func printValue(w io.Writer, v any) error {
	switch val := v.(type) {
	case string:
		fmt.Fprintln(w, val)
	case map[string]any, []any:
		data, err := yaml.Marshal(val)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(data))
	default:
		fmt.Fprintln(w, val)
	}
	return nil
}

// parseValue types a command-line value: bool, int, float, else string.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
