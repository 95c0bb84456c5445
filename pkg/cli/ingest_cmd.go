package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/ingestion"
)

func newIngestCmd() *cobra.Command {
	var bank string

	cmd := &cobra.Command{
		Use:   "ingest <file-or-dir>...",
		Short: "Convert local bank exports to CSV previews and zip listings",
		Long: "Ingest reads each file (directories are walked) and prints the zip entry\n" +
			"listing or the CSV preview of every file. Nothing is sent to the server.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []domain.SourceFile
			root := ""
			for _, arg := range args {
				picked, r, err := collectFiles(arg)
				if err != nil {
					return err
				}
				if r != "" && root == "" {
					root = r
				}
				files = append(files, picked...)
			}

			svc := ingestion.NewService(nil, discardLogger())
			results, err := svc.IngestBatch(cmd.Context(), ingestion.Batch{Bank: bank, Root: root, Files: files})
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), results)
			}
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				rows = append(rows, []string{
					res.Path, res.DisplayName, strconv.FormatBool(res.IsFolder), res.Kind(), resultSummary(res),
				})
			}
			PrintTable(cmd.OutOrStdout(), []string{"path", "display", "folder", "kind", "result"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&bank, "bank", "", "Bank the files belong to (BankA or BankB)")
	return cmd
}

// collectFiles reads a single file, or every regular file below a
// directory. Directory entries get paths relative to the directory's parent
// so the directory name becomes the selection root.
func collectFiles(arg string) ([]domain.SourceFile, string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", arg, err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, "", &domain.FileReadError{Name: arg, Err: err}
		}
		return []domain.SourceFile{{Path: filepath.Base(arg), Data: data}}, "", nil
	}

	root := filepath.Base(filepath.Clean(arg))
	var files []domain.SourceFile
	err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(arg, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return &domain.FileReadError{Name: p, Err: err}
		}
		files = append(files, domain.SourceFile{Path: filepath.ToSlash(filepath.Join(root, rel)), Data: data})
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return files, root, nil
}

func resultSummary(res domain.IngestedFile) string {
	switch {
	case res.ZipEntries != nil:
		entries, ok := res.ZipEntries.Get()
		if !ok {
			return "failed: " + res.ZipEntries.Message
		}
		return fmt.Sprintf("%d entries", len(entries))
	case res.CSVPreview != nil:
		preview, ok := res.CSVPreview.Get()
		if !ok {
			return "failed: " + res.CSVPreview.Message
		}
		return preview
	}
	return ""
}
