package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/config"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/approval"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/ingestion"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/schema"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// localSchemas reads the matcher documents from --schema-dir using the
// default document names.
func localSchemas(opts *globalOptions) *schema.Service {
	files := config.DefaultSchemaFiles()
	return schema.NewService(&schema.FileSource{
		Dir:           opts.schemaDir,
		Bank1Schema:   files.Bank1Schema,
		Bank2Schema:   files.Bank2Schema,
		TableMapping:  files.TableMapping,
		ColumnMapping: files.ColumnMapping,
	}, discardLogger())
}

// localWorkspace unifies the matcher documents into a fresh workspace.
func localWorkspace(cmd *cobra.Command, opts *globalOptions) (*approval.Workspace, error) {
	bundle, err := localSchemas(opts).Bundle(cmd.Context())
	if err != nil {
		return nil, err
	}
	ws := approval.NewWorkspace(discardLogger())
	ws.Load(bundle.Tables)
	return ws, nil
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file.xlsx|file.csv>",
		Short: "Normalize the first sheet of a spreadsheet into typed fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return &domain.FileReadError{Name: args[0], Err: err}
			}
			rows, err := schema.ReadSheet(filepath.Base(args[0]), data)
			if err != nil {
				return err
			}
			fields := schema.Normalize(rows)

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), fields)
			}
			out := make([][]string, 0, len(fields))
			for _, f := range fields {
				sample := ""
				if f.SampleValue != nil {
					sample = *f.SampleValue
				}
				out = append(out, []string{f.ID, f.Name, f.Type, sample})
			}
			PrintTable(cmd.OutOrStdout(), []string{"id", "name", "type", "sample"}, out)
			return nil
		},
	}
}

func newUnifyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unify",
		Short: "Unify the matcher documents into the per-table review view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bundle, err := localSchemas(opts).Bundle(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), bundle.Tables)
			}
			rows := make([][]string, 0, len(bundle.Tables))
			for _, t := range bundle.Tables {
				rows = append(rows, []string{
					t.TableName, t.Status, strconv.Itoa(len(t.Fields)), strconv.Itoa(len(t.ColumnMappings)),
				})
			}
			PrintTable(cmd.OutOrStdout(), []string{"table", "status", "fields", "mappings"}, rows)
			return nil
		},
	}
}

func newManifestCmd(opts *globalOptions) *cobra.Command {
	var bank string

	cmd := &cobra.Command{
		Use:   "manifest <file>...",
		Short: "Group data files under the confidently matched tables they merge into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ingestion.NormalizeBank(bank)
			if err != nil {
				return err
			}
			files := make([]schema.ManifestFile, len(args))
			for i, a := range args {
				files[i] = schema.ManifestFile{Source: a, Bank: b}
			}
			m, err := localSchemas(opts).Manifest(cmd.Context(), files)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), m)
			}
			var rows [][]string
			for _, a := range args {
				rows = append(rows, []string{a, manifestTable(m, a)})
			}
			PrintTable(cmd.OutOrStdout(), []string{"file", "table"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&bank, "bank", domain.BankB, "Bank the files belong to (BankA or BankB)")
	return cmd
}

func manifestTable(m *schema.Manifest, source string) string {
	for table, files := range m.Tables {
		for _, f := range files {
			if f.Source == source {
				return table
			}
		}
	}
	return "-"
}
