package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// Report renders the mapping documentation report as Markdown: an executive
// summary, the mapping table with confidence and approval, and a list of
// recommendations for unresolved conflicts.
func Report(snap domain.WorkspaceSnapshot, generatedAt time.Time) string {
	var b strings.Builder
	s := snap.Summary

	b.WriteString("# Schema Mapping Documentation Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "- Total mappings: %d\n", s.TotalMappings)
	fmt.Fprintf(&b, "- Approved mappings: %d (%.0f%%)\n", s.ApprovedMappings, s.MappingCompletion)
	fmt.Fprintf(&b, "- Confidence: %d high, %d medium, %d low\n", s.HighConfidence, s.MediumConfidence, s.LowConfidence)
	fmt.Fprintf(&b, "- Average confidence: %.0f%%\n", s.AverageConfidence)
	fmt.Fprintf(&b, "- Unresolved conflicts: %d\n", s.UnresolvedConflicts)
	fmt.Fprintf(&b, "- Tables approved: %d of %d (%.0f%%)\n\n", s.ApprovedTables, s.ConfidentTables, s.TableCompletion)

	b.WriteString("## Mappings\n\n")
	if len(snap.Mappings) == 0 {
		b.WriteString("No mappings loaded.\n\n")
	} else {
		b.WriteString("| Table | Bank A | Bank B | Unified | Confidence | Score | Status |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, m := range snap.Mappings {
			status := "Pending"
			if m.Approved {
				status = "Approved"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %.0f | %s |\n",
				cell(m.Table), cell(m.SourceField), cell(m.TargetField), cell(m.Unified),
				m.Confidence, m.Score, status)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	var conflicts []domain.Mapping
	for _, m := range snap.Mappings {
		if !m.Approved && m.Confidence == domain.TierLow {
			conflicts = append(conflicts, m)
		}
	}
	if len(conflicts) == 0 {
		b.WriteString("No unresolved conflicts.\n")
		return b.String()
	}
	for _, m := range conflicts {
		fmt.Fprintf(&b, "- %s: review `%s` ↔ `%s` (score %.0f); confirm the pairing manually or map the column by hand.\n",
			m.Table, orDash(m.SourceField), orDash(m.TargetField), m.Score)
	}
	return b.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
