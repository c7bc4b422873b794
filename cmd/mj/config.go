package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/andreisalomia/mini-jira/internal/config"
)

// secretKeys are masked by `mj config list` and `mj config get`.
var secretKeys = map[string]bool{
	config.KeyAuthSecret: true,
	config.KeyToken:      true,
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: "setup",
		Short:   "Manage configuration settings",
		Long: `Manage configuration settings.

Settings are read from .minijira/config.yaml, then
~/.config/minijira/config.yaml. MJ_* environment variables override both
(e.g. MJ_DB, MJ_AUTH_SECRET, MJ_LOG_LEVEL).

Examples:
  mj config set storage memory
  mj config set auth.token-ttl 2h
  mj config get db
  mj config list`,
	}
	cmd.AddCommand(c.configGetCmd(), c.configSetCmd(), c.configListCmd())
	return cmd
}

func (c *cli) configGetCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			key := args[0]
			value := displayValue(key, config.GetString(key), reveal)
			if c.jsonOutput {
				return outputJSON(c.out, map[string]string{"key": key, "value": value})
			}
			c.printf("%s\n", value)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secrets in clear text")
	return cmd
}

func (c *cli) configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a setting to .minijira/config.yaml",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			path := config.ProjectConfigPath()
			if err := config.SetFileValue(path, key, value); err != nil {
				return fmt.Errorf("setting config: %w", err)
			}
			if c.jsonOutput {
				return outputJSON(c.out, map[string]string{"key": key, "value": displayValue(key, value, false), "file": path})
			}
			c.printf("Set %s in %s\n", key, path)
			return nil
		},
	}
}

func (c *cli) configListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every effective setting",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			settings := make(map[string]string)
			flatten("", config.AllSettings(), settings)
			for key, value := range settings {
				settings[key] = displayValue(key, value, false)
			}
			if c.jsonOutput {
				return outputJSON(c.out, settings)
			}
			keys := make([]string, 0, len(settings))
			for key := range settings {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			if used := config.ConfigFileUsed(); used != "" {
				c.printf("# %s\n", used)
			}
			for _, key := range keys {
				c.printf("%s = %s\n", key, settings[key])
			}
			return nil
		},
	}
}

// flatten turns viper's nested settings into dotted keys.
func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	for key, value := range in {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			flatten(full, nested, out)
			continue
		}
		out[full] = fmt.Sprint(value)
	}
}

func displayValue(key, value string, reveal bool) string {
	if secretKeys[key] && value != "" && !reveal {
		return "********"
	}
	return value
}
