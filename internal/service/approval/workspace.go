// Package approval holds the reviewer's decisions on a unified schema view.
package approval

import (
	"log/slog"
	"math"
	"sync"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// Workspace owns the approval state of one review session. All methods are
// safe for concurrent use. Nothing is persisted.
type Workspace struct {
	mu        sync.RWMutex
	tables    []domain.UnifiedTable
	mappings  []domain.Mapping
	index     map[string]int
	approvals map[string]domain.TableApproval
	logger    *slog.Logger
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		index:     map[string]int{},
		approvals: map[string]domain.TableApproval{},
		logger:    logger,
	}
}

// Load replaces the unified view and rebuilds the mapping list from it.
// Mapping decisions start over from the matcher's statuses; table decisions
// are kept since they are keyed by name.
func (w *Workspace) Load(tables []domain.UnifiedTable) {
	mappings, index := buildMappings(tables)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tables = tables
	w.mappings = mappings
	w.index = index
	w.logger.Info("workspace loaded", "tables", len(tables), "mappings", len(mappings))
}

func buildMappings(tables []domain.UnifiedTable) ([]domain.Mapping, map[string]int) {
	var mappings []domain.Mapping
	index := map[string]int{}
	for _, t := range tables {
		for _, cm := range t.ColumnMappings {
			if _, dup := index[cm.ID]; dup {
				continue
			}
			index[cm.ID] = len(mappings)
			mappings = append(mappings, domain.Mapping{
				ID:          cm.ID,
				Table:       t.TableName,
				SourceField: cm.BankAColumn,
				TargetField: cm.BankBColumn,
				Unified:     cm.UnifiedColumn,
				Confidence:  cm.Confidence,
				Score:       cm.ConfidenceRating,
				Approved:    cm.Approved,
			})
		}
	}
	return mappings, index
}

// ToggleMapping flips the approval of one mapping and returns its new state.
func (w *Workspace) ToggleMapping(id string) (domain.Mapping, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	i, ok := w.index[id]
	if !ok {
		return domain.Mapping{}, domain.ErrNotFound("mapping %q not found", id)
	}
	w.mappings[i].Approved = !w.mappings[i].Approved
	return w.mappings[i], nil
}

// SetTableApproval records a decision for a table. The last write wins and
// the table does not have to be in the current view.
func (w *Workspace) SetTableApproval(table string, state domain.TableApproval) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.approvals[table] = state
}

// TableApproval returns the decision for a table, none by default.
func (w *Workspace) TableApproval(table string) domain.TableApproval {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if s, ok := w.approvals[table]; ok {
		return s
	}
	return domain.ApprovalNone
}

// ApproveAll approves every mapping and returns how many changed.
func (w *Workspace) ApproveAll() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	changed := 0
	for i := range w.mappings {
		if !w.mappings[i].Approved {
			w.mappings[i].Approved = true
			changed++
		}
	}
	return changed
}

// Completion is the share of confidently matched tables that are approved,
// as a percentage. It is 0 when there are no confident tables.
func (w *Workspace) Completion() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	confident, approved := w.tableCounts()
	return percent(approved, confident)
}

func (w *Workspace) tableCounts() (confident, approved int) {
	for _, t := range w.tables {
		if !t.IsConfident() {
			continue
		}
		confident++
		if w.approvals[t.TableName] == domain.ApprovalApproved {
			approved++
		}
	}
	return confident, approved
}

// Summary computes the review metrics over the current mappings.
func (w *Workspace) Summary() domain.MappingSummary {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.summary()
}

func (w *Workspace) summary() domain.MappingSummary {
	s := domain.MappingSummary{TotalMappings: len(w.mappings)}
	weight := 0
	for _, m := range w.mappings {
		if m.Approved {
			s.ApprovedMappings++
		}
		switch m.Confidence {
		case domain.TierHigh:
			s.HighConfidence++
		case domain.TierMedium:
			s.MediumConfidence++
		default:
			s.LowConfidence++
			if !m.Approved {
				s.UnresolvedConflicts++
			}
		}
		weight += m.Confidence.Weight()
	}
	s.MappingCompletion = percent(s.ApprovedMappings, s.TotalMappings)
	if s.TotalMappings > 0 {
		s.AverageConfidence = math.Round(float64(weight) / float64(s.TotalMappings))
	}
	s.ConfidentTables, s.ApprovedTables = w.tableCounts()
	s.TableCompletion = percent(s.ApprovedTables, s.ConfidentTables)
	return s
}

// Snapshot returns a copy of the whole review state.
func (w *Workspace) Snapshot() domain.WorkspaceSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	tables := make([]domain.UnifiedTable, len(w.tables))
	copy(tables, w.tables)
	mappings := make([]domain.Mapping, len(w.mappings))
	copy(mappings, w.mappings)
	approvals := make(map[string]domain.TableApproval, len(w.approvals))
	for k, v := range w.approvals {
		approvals[k] = v
	}

	summary := w.summary()
	return domain.WorkspaceSnapshot{
		Tables:     tables,
		Mappings:   mappings,
		Approvals:  approvals,
		Completion: summary.TableCompletion,
		Summary:    summary,
	}
}

// Mappings returns a copy of the mapping list.
func (w *Workspace) Mappings() []domain.Mapping {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]domain.Mapping, len(w.mappings))
	copy(out, w.mappings)
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
