package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

func newWorkspaceCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Review mappings in the server's workspace",
	}
	cmd.AddCommand(newWorkspaceShowCmd(opts))
	cmd.AddCommand(newWorkspaceReloadCmd(opts))
	cmd.AddCommand(newWorkspaceToggleCmd(opts))
	cmd.AddCommand(newWorkspaceApproveTableCmd(opts))
	cmd.AddCommand(newWorkspaceApproveAllCmd(opts))
	return cmd
}

func newWorkspaceShowCmd(opts *globalOptions) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the workspace mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snap domain.WorkspaceSnapshot
			if err := opts.client.DoJSON(http.MethodGet, "/workspace", nil, nil, &snap); err != nil {
				return err
			}
			return printSnapshot(cmd, snap, table)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Only show mappings of this table")
	return cmd
}

func newWorkspaceReloadCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Rebuild the workspace from the matcher documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snap domain.WorkspaceSnapshot
			if err := opts.client.DoJSON(http.MethodPost, "/workspace/reload", nil, nil, &snap); err != nil {
				return err
			}
			return printSnapshot(cmd, snap, "")
		},
	}
}

func newWorkspaceToggleCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <mapping-id>",
		Short: "Flip the approval of one mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m domain.Mapping
			path := "/workspace/mappings/" + url.PathEscape(args[0]) + "/toggle"
			if err := opts.client.DoJSON(http.MethodPost, path, nil, nil, &m); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), m)
			}
			PrintDetail(cmd.OutOrStdout(), map[string]string{
				"id":       m.ID,
				"table":    m.Table,
				"source":   m.SourceField,
				"target":   m.TargetField,
				"approved": strconv.FormatBool(m.Approved),
			})
			return nil
		},
	}
}

func newWorkspaceApproveTableCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "approve-table <table> <none|approved|rejected>",
		Short: "Set the approval state of a unified table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := domain.ParseTableApproval(args[1])
			if err != nil {
				return err
			}
			var resp struct {
				Table      string  `json:"table"`
				State      string  `json:"state"`
				Completion float64 `json:"completion"`
			}
			path := "/workspace/tables/" + url.PathEscape(args[0]) + "/approval"
			body := map[string]string{"state": string(state)}
			if err := opts.client.DoJSON(http.MethodPut, path, nil, body, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), resp)
			}
			PrintDetail(cmd.OutOrStdout(), map[string]string{
				"table":      resp.Table,
				"state":      resp.State,
				"completion": formatPercent(resp.Completion),
			})
			return nil
		},
	}
}

func newWorkspaceApproveAllCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "approve-all",
		Short: "Approve every mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Approved int                   `json:"approved"`
				Summary  domain.MappingSummary `json:"summary"`
			}
			if err := opts.client.DoJSON(http.MethodPost, "/workspace/approve-all", nil, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), resp)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "approved %d mappings (%d/%d, %s complete)\n",
				resp.Approved, resp.Summary.ApprovedMappings, resp.Summary.TotalMappings,
				formatPercent(resp.Summary.MappingCompletion))
			return nil
		},
	}
}

func printSnapshot(cmd *cobra.Command, snap domain.WorkspaceSnapshot, table string) error {
	mappings := snap.Mappings
	if table != "" {
		mappings = mappings[:0:0]
		for _, m := range snap.Mappings {
			if m.Table == table {
				mappings = append(mappings, m)
			}
		}
	}

	if getOutputFormat(cmd) == "json" {
		if table != "" {
			return PrintJSON(cmd.OutOrStdout(), mappings)
		}
		return PrintJSON(cmd.OutOrStdout(), snap)
	}

	rows := make([][]string, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, []string{
			m.ID, m.Table, m.SourceField, m.TargetField, string(m.Confidence),
			strconv.FormatFloat(m.Score, 'f', -1, 64), strconv.FormatBool(m.Approved),
		})
	}
	PrintTable(cmd.OutOrStdout(), []string{"id", "table", "source", "target", "confidence", "score", "approved"}, rows)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d mappings approved, %d/%d tables approved\n",
		snap.Summary.ApprovedMappings, snap.Summary.TotalMappings,
		snap.Summary.ApprovedTables, snap.Summary.ConfidentTables)
	return nil
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
