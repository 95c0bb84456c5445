package approval

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

func testTables() []domain.UnifiedTable {
	return []domain.UnifiedTable{
		{
			TableName: "Customers",
			Status:    domain.StatusConfidentMatch,
			ColumnMappings: []domain.DisplayMapping{
				{ID: "cm-Customers-0", BankAColumn: "CustomerID", BankBColumn: "ClientNo", UnifiedColumn: "CustomerID", Confidence: domain.TierHigh, ConfidenceRating: 95, Approved: true},
				{ID: "cm-Customers-1", BankAColumn: "Segment", BankBColumn: "Tier", UnifiedColumn: "Segment", Confidence: domain.TierMedium, ConfidenceRating: 70},
			},
		},
		{
			TableName: "Accounts",
			Status:    domain.StatusConfidentMatch,
			ColumnMappings: []domain.DisplayMapping{
				{ID: "cm-Accounts-0", BankBColumn: "Region", UnifiedColumn: "Region", Confidence: domain.TierLow, ConfidenceRating: 20},
			},
		},
		{TableName: "Branches", Status: "Needs Review"},
	}
}

func TestWorkspace_LoadBuildsMappings(t *testing.T) {
	w := NewWorkspace(nil)
	w.Load(testTables())

	mappings := w.Mappings()
	require.Len(t, mappings, 3)
	assert.Equal(t, domain.Mapping{
		ID:          "cm-Customers-0",
		Table:       "Customers",
		SourceField: "CustomerID",
		TargetField: "ClientNo",
		Unified:     "CustomerID",
		Confidence:  domain.TierHigh,
		Score:       95,
		Approved:    true,
	}, mappings[0])
	assert.Equal(t, "Accounts", mappings[2].Table)
}

func TestWorkspace_ToggleMapping(t *testing.T) {
	w := NewWorkspace(nil)
	w.Load(testTables())

	m, err := w.ToggleMapping("cm-Customers-1")
	require.NoError(t, err)
	assert.True(t, m.Approved)

	mappings := w.Mappings()
	assert.True(t, mappings[0].Approved, "other mappings are untouched")
	assert.False(t, mappings[2].Approved)

	m, err = w.ToggleMapping("cm-Customers-1")
	require.NoError(t, err)
	assert.False(t, m.Approved)

	_, err = w.ToggleMapping("cm-nope-0")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestWorkspace_CompletionTracksApprovedConfidentTables(t *testing.T) {
	w := NewWorkspace(nil)
	w.Load(testTables())
	assert.Zero(t, w.Completion())

	w.SetTableApproval("Customers", domain.ApprovalRejected)
	assert.Zero(t, w.Completion())

	// Approving after rejecting overwrites the earlier decision.
	w.SetTableApproval("Customers", domain.ApprovalApproved)
	assert.InDelta(t, 50.0, w.Completion(), 0.001)
	assert.Equal(t, domain.ApprovalApproved, w.TableApproval("Customers"))

	// Uncertain tables never count, and unknown tables are accepted.
	w.SetTableApproval("Branches", domain.ApprovalApproved)
	w.SetTableApproval("NotInView", domain.ApprovalApproved)
	assert.InDelta(t, 50.0, w.Completion(), 0.001)

	w.SetTableApproval("Accounts", domain.ApprovalApproved)
	assert.InDelta(t, 100.0, w.Completion(), 0.001)
}

func TestWorkspace_CompletionWithoutConfidentTables(t *testing.T) {
	w := NewWorkspace(nil)
	assert.Zero(t, w.Completion())

	w.Load([]domain.UnifiedTable{{TableName: "T", Status: "Needs Review"}})
	w.SetTableApproval("T", domain.ApprovalApproved)
	assert.Zero(t, w.Completion())
	assert.Equal(t, domain.ApprovalNone, w.TableApproval("other"))
}

func TestWorkspace_Summary(t *testing.T) {
	w := NewWorkspace(nil)
	w.Load(testTables())
	w.SetTableApproval("Customers", domain.ApprovalApproved)

	s := w.Summary()
	assert.Equal(t, 3, s.TotalMappings)
	assert.Equal(t, 1, s.ApprovedMappings)
	assert.InDelta(t, 100.0/3, s.MappingCompletion, 0.001)
	assert.Equal(t, 1, s.HighConfidence)
	assert.Equal(t, 1, s.MediumConfidence)
	assert.Equal(t, 1, s.LowConfidence)
	assert.InDelta(t, 63.0, s.AverageConfidence, 0.001) // (100+60+30)/3 rounded
	assert.Equal(t, 1, s.UnresolvedConflicts)
	assert.Equal(t, 2, s.ConfidentTables)
	assert.Equal(t, 1, s.ApprovedTables)
	assert.InDelta(t, 50.0, s.TableCompletion, 0.001)
}

func TestWorkspace_ApproveAll(t *testing.T) {
	w := NewWorkspace(nil)
	w.Load(testTables())

	assert.Equal(t, 2, w.ApproveAll())
	assert.Equal(t, 0, w.ApproveAll())
	s := w.Summary()
	assert.Equal(t, 3, s.ApprovedMappings)
	assert.Zero(t, s.UnresolvedConflicts)
}

func TestWorkspace_ReloadResetsMappingsKeepsTableDecisions(t *testing.T) {
	w := NewWorkspace(nil)
	w.Load(testTables())
	_, err := w.ToggleMapping("cm-Accounts-0")
	require.NoError(t, err)
	w.SetTableApproval("Customers", domain.ApprovalApproved)

	w.Load(testTables())

	assert.False(t, w.Mappings()[2].Approved)
	assert.Equal(t, domain.ApprovalApproved, w.TableApproval("Customers"))
}

func TestWorkspace_SnapshotIsACopy(t *testing.T) {
	w := NewWorkspace(nil)
	w.Load(testTables())
	w.SetTableApproval("Customers", domain.ApprovalApproved)

	snap := w.Snapshot()
	snap.Mappings[0].Approved = false
	snap.Approvals["Customers"] = domain.ApprovalRejected

	assert.True(t, w.Mappings()[0].Approved)
	assert.Equal(t, domain.ApprovalApproved, w.TableApproval("Customers"))
	assert.InDelta(t, 50.0, snap.Completion, 0.001)
	assert.Len(t, snap.Tables, 3)
}

func TestWorkspace_ConcurrentToggles(t *testing.T) {
	w := NewWorkspace(nil)
	w.Load(testTables())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.ToggleMapping("cm-Customers-1")
			_ = w.Snapshot()
		}()
	}
	wg.Wait()

	// An even number of flips leaves the mapping where it started.
	assert.False(t, w.Mappings()[1].Approved)
}
