// Package cli implements the schemamerge command-line interface: offline
// ingestion, normalization and unification against local files, plus review
// commands against a running server.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "none"
)

// Environment variables consulted when a flag is not set.
const (
	envHost      = "SCHEMAMERGE_HOST"
	envOutput    = "SCHEMAMERGE_OUTPUT"
	envSchemaDir = "SCHEMAMERGE_SCHEMA_DIR"
)

// globalOptions are the resolved persistent flags shared by all commands.
type globalOptions struct {
	host      string
	output    string
	profile   string
	schemaDir string
	client    *Client
}

// Execute runs the CLI.
func Execute() int {
	return run(newRootCmd(), os.Stdout, os.Stderr)
}

func run(rootCmd *cobra.Command, stdout, stderr io.Writer) int {
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{"error": err.Error()}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
			}
			_ = PrintJSON(stdout, errObj)
		} else {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "schemamerge",
		Short:         "Bank schema merge CLI",
		Long:          "Ingest bank exports, normalize field lists, unify matcher output and review mappings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				// config file is optional
				cfg = emptyUserConfig()
			}
			p, err := cfg.ActiveProfile(opts.profile)
			if err != nil {
				return err
			}

			// flag > env > profile > default
			resolve(cmd, "host", &opts.host, envHost, p.Host)
			resolve(cmd, "output", &opts.output, envOutput, p.Output)
			resolve(cmd, "schema-dir", &opts.schemaDir, envSchemaDir, p.SchemaDir)

			if err := validateOutputFormat(opts.output); err != nil {
				return err
			}
			opts.client = NewClient(opts.host)
			return nil
		},
	}

	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.host, "host", "http://localhost:8080", "API host URL")
	flags.StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	flags.StringVarP(&opts.profile, "profile", "p", "", "Config profile to use")
	flags.StringVar(&opts.schemaDir, "schema-dir", "schemas", "Directory holding the matcher documents")

	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newUnifyCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newReportCmd(opts))
	rootCmd.AddCommand(newManifestCmd(opts))
	rootCmd.AddCommand(newWorkspaceCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// normalizeFlagName accepts --schema_dir as an alias of --schema-dir.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// resolve applies env and profile values to a flag the user did not set.
func resolve(cmd *cobra.Command, flag string, dst *string, env, profileValue string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	} else if profileValue != "" {
		*dst = profileValue
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), map[string]string{"version": version, "commit": commit})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schemamerge version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
