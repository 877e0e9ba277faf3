package routecard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThreeFieldWorkflow(t *testing.T, store *CardStore) *threeFieldWorkflow {
	t.Helper()
	wf, err := NewCompletionWorkflow(store, PolicyPreProvisioned, testLogger())
	require.NoError(t, err)
	return wf.(*threeFieldWorkflow)
}

func newSingleFieldWorkflow(t *testing.T, store *CardStore) CompletionWorkflow {
	t.Helper()
	wf, err := NewCompletionWorkflow(store, PolicyAutoProvision, testLogger())
	require.NoError(t, err)
	return wf
}

func TestNewCompletionWorkflow(t *testing.T) {
	store := newTestStore(t, StoreOptions{})

	wf, err := NewCompletionWorkflow(store, "", testLogger())
	require.NoError(t, err)
	assert.Equal(t, PolicyPreProvisioned, wf.Policy())
	assert.Equal(t, StateAwaitingSerial, wf.State())

	wf, err = NewCompletionWorkflow(store, PolicyAutoProvision, testLogger())
	require.NoError(t, err)
	assert.Equal(t, PolicyAutoProvision, wf.Policy())

	_, err = NewCompletionWorkflow(store, Policy("interactive"), testLogger())
	require.Error(t, err)
}

func TestThreeFieldWorkflow_HappyPath(t *testing.T) {
	store := newTestStore(t, StoreOptions{})
	seed(t, store, RouteCard{Serial: "МК-0042", Status: StatusPending, CreatedAt: "2025-01-10 09:00:00"})
	wf := newThreeFieldWorkflow(t, store)

	out := wf.SubmitSerial("МК-0042")
	require.True(t, out.OK(), out.Message)
	assert.Equal(t, StateAwaitingDetails, wf.State())

	out = wf.SubmitDetails("05-002/25", "К25/05-099")
	require.True(t, out.OK(), out.Message)
	assert.Equal(t, StateCompleted, wf.State())
	assert.Equal(t, "МК-0042", out.Value)

	card, err := store.FindBySerial("МК-0042")
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, StatusCompleted, card.Status)
	assert.Equal(t, "05-002/25", card.AccountNumber)
	assert.Equal(t, "К25/05-099", card.ClusterNumber)
}

func TestThreeFieldWorkflow_SerialRejections(t *testing.T) {
	store := newTestStore(t, StoreOptions{})
	seed(t, store, RouteCard{Serial: "000001", AccountNumber: "05-002/25", ClusterNumber: "К25/05-099",
		Status: StatusCompleted, CreatedAt: "2025-01-10 09:00:00"})
	wf := newThreeFieldWorkflow(t, store)

	out := wf.SubmitSerial("   ")
	assert.Equal(t, OutcomeFormatError, out.Kind)
	assert.Equal(t, StateRejected, wf.State())

	wf.Reset()
	// Unknown serials are terminal under this policy: nothing is
	// auto-provisioned.
	out = wf.SubmitSerial("999999")
	assert.Equal(t, OutcomeNotFound, out.Kind)
	assert.Equal(t, "999999", out.Value)
	assert.Equal(t, StateRejected, wf.State())
	assert.EqualValues(t, 1, store.CountAll())

	wf.Reset()
	out = wf.SubmitSerial("000001")
	assert.Equal(t, OutcomeConflict, out.Kind)
	assert.Equal(t, "000001", out.Value)
	assert.Equal(t, StateRejected, wf.State())
}

func TestThreeFieldWorkflow_DetailValidationOrder(t *testing.T) {
	store := newTestStore(t, StoreOptions{})
	seed(t, store, RouteCard{Serial: "000010", Status: StatusPending, CreatedAt: "2025-01-10 09:00:00"})
	// Occupy both numbers so uniqueness failures are reachable.
	seed(t, store, RouteCard{Serial: "000011", AccountNumber: "05-002/25", ClusterNumber: "К25/05-099",
		Status: StatusCompleted, CreatedAt: "2025-01-11 09:00:00"})
	wf := newThreeFieldWorkflow(t, store)
	require.True(t, wf.SubmitSerial("000010").OK())

	// (a) presence comes first, even when everything else is wrong too.
	out := wf.SubmitDetails("", "")
	assert.Equal(t, OutcomeFormatError, out.Kind)
	assert.Equal(t, StateAwaitingDetails, wf.State(), "failures keep the attempt open")

	// (b) account format precedes cluster format.
	out = wf.SubmitDetails("bogus", "also-bogus")
	assert.Equal(t, OutcomeFormatError, out.Kind)
	assert.Equal(t, "bogus", out.Value)

	// (c) cluster format.
	out = wf.SubmitDetails("07-001/25", "also-bogus")
	assert.Equal(t, OutcomeFormatError, out.Kind)
	assert.Equal(t, "also-bogus", out.Value)

	// (d) account uniqueness precedes cluster uniqueness.
	out = wf.SubmitDetails("05-002/25", "К25/05-100")
	assert.Equal(t, OutcomeConflict, out.Kind)
	assert.Equal(t, "05-002/25", out.Value)

	// (e) cluster uniqueness.
	out = wf.SubmitDetails("07-001/25", "К25/05-099")
	assert.Equal(t, OutcomeConflict, out.Kind)
	assert.Equal(t, "К25/05-099", out.Value)

	// The blank under edit stayed pending throughout the failed attempts.
	card, err := store.FindBySerial("000010")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, card.Status)

	// A valid pair still completes the same attempt.
	out = wf.SubmitDetails("07-001/25", "К25/05-100")
	require.True(t, out.OK(), out.Message)
	assert.Equal(t, StateCompleted, wf.State())
}

func TestThreeFieldWorkflow_PrefilledFieldsAreLocked(t *testing.T) {
	store := newTestStore(t, StoreOptions{})
	seed(t, store, RouteCard{Serial: "000020", AccountNumber: "09-005/25",
		Status: StatusPending, CreatedAt: "2025-01-10 09:00:00"})
	wf := newThreeFieldWorkflow(t, store)

	require.True(t, wf.SubmitSerial("000020").OK())
	account, cluster := wf.Prefill()
	assert.Equal(t, "09-005/25", account)
	assert.Empty(t, cluster)

	// An attempt to overwrite the recorded account number is ignored; the
	// existing value wins.
	out := wf.SubmitDetails("11-111/25", "К25/09-005")
	require.True(t, out.OK(), out.Message)

	card, err := store.FindBySerial("000020")
	require.NoError(t, err)
	assert.Equal(t, "09-005/25", card.AccountNumber)
	assert.Equal(t, "К25/09-005", card.ClusterNumber)
}

func TestThreeFieldWorkflow_RaceLostUpdate(t *testing.T) {
	store := newTestStore(t, StoreOptions{})
	seed(t, store, RouteCard{Serial: "000030", Status: StatusPending, CreatedAt: "2025-01-10 09:00:00"})
	wf := newThreeFieldWorkflow(t, store)
	require.True(t, wf.SubmitSerial("000030").OK())

	// The record vanishes between lookup and write.
	require.NoError(t, store.db.Where("serial = ?", "000030").Delete(&RouteCard{}).Error)

	out := wf.SubmitDetails("05-002/25", "К25/05-099")
	assert.Equal(t, OutcomeUpdateFailed, out.Kind)
	assert.Equal(t, StateRejected, wf.State())
}

func TestThreeFieldWorkflow_OutOfOrderAndReset(t *testing.T) {
	store := newTestStore(t, StoreOptions{})
	seed(t, store, RouteCard{Serial: "000040", Status: StatusPending, CreatedAt: "2025-01-10 09:00:00"})
	wf := newThreeFieldWorkflow(t, store)

	out := wf.SubmitDetails("05-002/25", "К25/05-099")
	assert.Equal(t, OutcomeOutOfOrder, out.Kind)

	require.True(t, wf.SubmitSerial("000040").OK())
	// Reset abandons the attempt from any state and clears held input.
	wf.Reset()
	assert.Equal(t, StateAwaitingSerial, wf.State())
	out = wf.SubmitDetails("05-002/25", "К25/05-099")
	assert.Equal(t, OutcomeOutOfOrder, out.Kind)

	card, err := store.FindBySerial("000040")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, card.Status)
}

func TestThreeFieldWorkflow_UniquenessAcrossCompletions(t *testing.T) {
	store := newTestStore(t, StoreOptions{})
	seed(t, store, RouteCard{Serial: "000050", Status: StatusPending, CreatedAt: "2025-01-10 09:00:00"})
	seed(t, store, RouteCard{Serial: "000051", Status: StatusPending, CreatedAt: "2025-01-10 09:05:00"})
	wf := newThreeFieldWorkflow(t, store)

	require.True(t, wf.SubmitSerial("000050").OK())
	require.True(t, wf.SubmitDetails("05-002/25", "К25/05-099").OK())

	// The same account number for a different blank is refused and the
	// other blank stays pending.
	wf.Reset()
	require.True(t, wf.SubmitSerial("000051").OK())
	out := wf.SubmitDetails("05-002/25", "К25/05-100")
	assert.Equal(t, OutcomeConflict, out.Kind)
	assert.Equal(t, "05-002/25", out.Value)

	card, err := store.FindBySerial("000051")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, card.Status)

	// No two completed cards share an account or a cluster number.
	require.True(t, wf.SubmitDetails("05-003/25", "К25/05-100").OK())
	assert.EqualValues(t, 2, store.CountCompleted())
	for _, field := range []TopField{TopFieldAccountNumber, TopFieldClusterNumber} {
		for _, vc := range store.TopValues(field, 100) {
			assert.EqualValues(t, 1, vc.Count, "%s %q recorded more than once", field, vc.Value)
		}
	}
}

func TestSingleFieldWorkflow_CompletesUnknownSerial(t *testing.T) {
	store := newTestStore(t, StoreOptions{Clock: fixedClock("2025-04-01 09:00:00")})
	wf := newSingleFieldWorkflow(t, store)

	out := wf.SubmitSerial("123456")
	require.True(t, out.OK(), out.Message)
	assert.Equal(t, StateAwaitingDetails, wf.State())

	out = wf.SubmitDetails("", "")
	require.True(t, out.OK(), out.Message)
	assert.Equal(t, "123456", out.Value)
	assert.Equal(t, StateCompleted, wf.State())

	// Exactly one completed row was created.
	assert.EqualValues(t, 1, store.CountAll())
	card, err := store.FindBySerial("123456")
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, StatusCompleted, card.Status)
	assert.Equal(t, "2025-04-01 09:00:00", card.CreatedAt)

	// Re-attempting the same serial is a conflict, not a second row.
	wf.Reset()
	out = wf.SubmitSerial("123456")
	assert.Equal(t, OutcomeConflict, out.Kind)
	assert.Equal(t, "123456", out.Value)
	assert.EqualValues(t, 1, store.CountAll())
}

func TestSingleFieldWorkflow_NormalizesAndRangeChecks(t *testing.T) {
	store := newTestStore(t, StoreOptions{})
	wf := newSingleFieldWorkflow(t, store)

	out := wf.SubmitSerial("1")
	require.True(t, out.OK(), out.Message)
	assert.Equal(t, "000001", out.Value)
	require.True(t, wf.SubmitDetails("", "").OK())

	card, err := store.FindBySerial("000001")
	require.NoError(t, err)
	require.NotNil(t, card, "the normalized serial is what gets stored")

	for _, serial := range []string{"0", "1000000", "12x456", ""} {
		wf.Reset()
		out = wf.SubmitSerial(serial)
		assert.Equal(t, OutcomeFormatError, out.Kind, "serial %q", serial)
		assert.Equal(t, StateRejected, wf.State())
	}
}

func TestSingleFieldWorkflow_CompletesProvisionedRow(t *testing.T) {
	store := newTestStore(t, StoreOptions{Clock: fixedClock("2025-04-02 10:00:00")})
	seed(t, store, RouteCard{Serial: "000042", Status: StatusPending, CreatedAt: "2025-03-01 08:00:00",
		FilePath: "cards/000042.docx"})
	wf := newSingleFieldWorkflow(t, store)

	require.True(t, wf.SubmitSerial("42").OK())
	require.True(t, wf.SubmitDetails("", "").OK())

	// The existing row was completed in place, not duplicated.
	assert.EqualValues(t, 1, store.CountAll())
	card, err := store.FindBySerial("000042")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, card.Status)
	assert.Equal(t, "2025-04-02 10:00:00", card.CreatedAt)
	assert.Equal(t, "cards/000042.docx", card.FilePath, "pass-through field is preserved")
}

func TestCompletionIsIrreversible(t *testing.T) {
	store := newTestStore(t, StoreOptions{})
	seed(t, store, RouteCard{Serial: "000060", Status: StatusPending, CreatedAt: "2025-01-10 09:00:00"})
	wf := newThreeFieldWorkflow(t, store)
	require.True(t, wf.SubmitSerial("000060").OK())
	require.True(t, wf.SubmitDetails("05-004/25", "К25/05-104").OK())

	// Every public path rejects a completed blank; nothing transitions it
	// back to pending.
	wf.Reset()
	out := wf.SubmitSerial("000060")
	assert.Equal(t, OutcomeConflict, out.Kind)

	sf := newSingleFieldWorkflow(t, store)
	out = sf.SubmitSerial("60")
	assert.Equal(t, OutcomeConflict, out.Kind)

	_, err := store.InsertPending("000060", "")
	assert.ErrorIs(t, err, ErrDuplicateSerial)

	card, err := store.FindBySerial("000060")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, card.Status)
}
