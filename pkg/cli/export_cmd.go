package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
	"github.com/selvxhini-10/EY-Schema-Merger/internal/service/export"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		format     string
		out        string
		approveAll bool
		remote     bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the mapping set as csv, json or xlsx",
		Long: "Export renders the mapping set built from the local matcher documents.\n" +
			"With --remote the server's reviewed workspace is downloaded instead.\n" +
			"Use --out - to write to stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			var name string
			var body []byte
			if remote {
				if approveAll {
					return domain.ErrValidation("--approve-all cannot be combined with --remote; use 'workspace approve-all'")
				}
				body, err = fetchRaw(opts.client, "/export", url.Values{"format": {string(f)}})
				if err != nil {
					return err
				}
				name = "unified_schema." + string(f)
			} else {
				ws, err := localWorkspace(cmd, opts)
				if err != nil {
					return err
				}
				if approveAll {
					ws.ApproveAll()
				}
				art, err := export.NewService(nil, "", discardLogger()).Export(ws.Snapshot(), f)
				if err != nil {
					return err
				}
				name, body = art.Name, art.Body
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}
			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(body))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format (csv, json, xlsx)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: generated name, - for stdout)")
	cmd.Flags().BoolVar(&approveAll, "approve-all", false, "Approve every mapping before exporting")
	cmd.Flags().BoolVar(&remote, "remote", false, "Download the server's reviewed workspace")
	return cmd
}

func newReportCmd(opts *globalOptions) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the Markdown mapping report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote {
				body, err := fetchRaw(opts.client, "/report", nil)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			ws, err := localWorkspace(cmd, opts)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), export.NewService(nil, "", discardLogger()).Report(ws.Snapshot()))
			return err
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch the report of the server's reviewed workspace")
	return cmd
}

// fetchRaw GETs a non-JSON resource.
func fetchRaw(c *Client, path string, query url.Values) ([]byte, error) {
	resp, err := c.Do(http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
