package domain

import "strings"

// TableApproval is the reviewer's decision on one unified table.
type TableApproval string

// Table approval states.
const (
	ApprovalNone     TableApproval = "none"
	ApprovalApproved TableApproval = "approved"
	ApprovalRejected TableApproval = "rejected"
)

// ParseTableApproval validates a state name.
func ParseTableApproval(s string) (TableApproval, error) {
	switch TableApproval(strings.ToLower(strings.TrimSpace(s))) {
	case ApprovalNone:
		return ApprovalNone, nil
	case ApprovalApproved:
		return ApprovalApproved, nil
	case ApprovalRejected:
		return ApprovalRejected, nil
	default:
		return "", ErrValidation("invalid table approval state %q: must be none, approved or rejected", s)
	}
}

// Mapping is a reviewable column mapping. Only Approved changes after
// construction.
type Mapping struct {
	ID          string  `json:"id"`
	Table       string  `json:"table"`
	SourceField string  `json:"sourceField"`
	TargetField string  `json:"targetField"`
	Unified     string  `json:"unifiedField"`
	Confidence  Tier    `json:"confidence"`
	Score       float64 `json:"score"`
	Approved    bool    `json:"approved"`
}

// MappingSummary holds the review metrics shown next to the workspace.
type MappingSummary struct {
	TotalMappings       int     `json:"totalMappings"`
	ApprovedMappings    int     `json:"approvedMappings"`
	MappingCompletion   float64 `json:"mappingCompletion"`
	HighConfidence      int     `json:"highConfidence"`
	MediumConfidence    int     `json:"mediumConfidence"`
	LowConfidence       int     `json:"lowConfidence"`
	AverageConfidence   float64 `json:"averageConfidence"`
	UnresolvedConflicts int     `json:"unresolvedConflicts"`
	ConfidentTables     int     `json:"confidentTables"`
	ApprovedTables      int     `json:"approvedTables"`
	TableCompletion     float64 `json:"tableCompletion"`
}

// WorkspaceSnapshot is a consistent copy of the review state.
type WorkspaceSnapshot struct {
	Tables     []UnifiedTable           `json:"tables"`
	Mappings   []Mapping                `json:"mappings"`
	Approvals  map[string]TableApproval `json:"approvals"`
	Completion float64                  `json:"completion"`
	Summary    MappingSummary           `json:"summary"`
}
