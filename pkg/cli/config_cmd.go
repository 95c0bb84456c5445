package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI profiles in ~/.schemamerge/config.yaml",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetProfileCmd())
	cmd.AddCommand(newConfigUseProfileCmd())
	return cmd
}

// loadOrEmpty reads the config file; a missing file yields an empty config.
func loadOrEmpty() (*UserConfig, error) {
	cfg, err := LoadUserConfig()
	if errors.Is(err, fs.ErrNotExist) {
		return emptyUserConfig(), nil
	}
	return cfg, err
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show all profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadOrEmpty()
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), cfg)
			}
			rows := make([][]string, 0, len(cfg.Profiles))
			for _, name := range sortedKeys(cfg.Profiles) {
				p := cfg.Profiles[name]
				current := ""
				if name == cfg.CurrentProfile {
					current = "*"
				}
				rows = append(rows, []string{current, name, p.Host, p.Output, p.SchemaDir})
			}
			PrintTable(cmd.OutOrStdout(), []string{"current", "name", "host", "output", "schema-dir"}, rows)
			return nil
		},
	}
}

func newConfigSetProfileCmd() *cobra.Command {
	var p Profile

	cmd := &cobra.Command{
		Use:   "set-profile <name>",
		Short: "Create or update a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(p.Output); err != nil {
				return err
			}
			cfg, err := loadOrEmpty()
			if err != nil {
				return err
			}
			existing := cfg.Profiles[args[0]]
			if cmd.Flags().Changed("host") {
				existing.Host = p.Host
			}
			if cmd.Flags().Changed("output") {
				existing.Output = p.Output
			}
			if cmd.Flags().Changed("schema-dir") {
				existing.SchemaDir = p.SchemaDir
			}
			cfg.Profiles[args[0]] = existing
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "profile %q saved\n", args[0])
			return nil
		},
	}
	// local flags shadow the persistent ones of the same name
	cmd.Flags().StringVar(&p.Host, "host", "", "API host URL")
	cmd.Flags().StringVarP(&p.Output, "output", "o", "", "Default output format")
	cmd.Flags().StringVar(&p.SchemaDir, "schema-dir", "", "Directory holding the matcher documents")
	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadOrEmpty()
			if err != nil {
				return err
			}
			if _, ok := cfg.Profiles[args[0]]; !ok {
				return fmt.Errorf("profile %q not found", args[0])
			}
			cfg.CurrentProfile = args[0]
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "switched to profile %q\n", args[0])
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
