package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/alanmeadows/playrun/internal/config"
	"github.com/alanmeadows/playrun/internal/store"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage playrun configuration",
		Long:  `Show and modify playrun configuration values.`,
	}
	cmd.AddCommand(newConfigShowCmd(o))
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigShowCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Redact secrets before display.
			redacted := redactConfig(o.cfg)

			var data []byte
			var err error
			if asJSON {
				data, err = json.Marshal(redacted)
			} else {
				data, err = json.MarshalIndent(redacted, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON without formatting")
	return cmd
}

// redactConfig returns a copy of the config with secret fields masked.
func redactConfig(cfg *config.Config) *config.Config {
	copy := *cfg
	if copy.Notifications.TeamsWebhookURL != "" {
		copy.Notifications.TeamsWebhookURL = "***"
	}
	return &copy
}

// parseValue guesses the JSON type of a command-line value: number, then
// bool, then string. "1" stays a number.
func parseValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: `Set a configuration value using a dotted key path.

The value is written to .playrun/playrun.jsonc in the repository root
(or the current directory outside a git repository). The file is created
if it does not exist.

Note: JSONC comments are not preserved on write.`,
		Example: `  playrun config set report.counter_policy sum
  playrun config set cleanup.retention_days 14
  playrun config set ansible.timeout 45m`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := parseValue(args[1])
			path := config.RepoConfigPath()

			existing := []byte("{}")
			if data, err := os.ReadFile(path); err == nil {
				// sjson needs plain JSON.
				existing = jsonc.ToJSON(data)
			}

			updated, err := sjson.SetBytes(existing, key, value)
			if err != nil {
				return fmt.Errorf("setting key %q: %w", key, err)
			}
			if err := config.CheckDocument(updated); err != nil {
				return fmt.Errorf("refusing to write %s: %w", path, err)
			}
			if err := store.WriteFile(path, updated, 0644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, value)
			return nil
		},
	}
}
