package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/reservation-platform/internal/history"
	"github.com/clinicbook/reservation-platform/internal/scheduling"
)

func TestAvailableSlotsFirstVisitScenario(t *testing.T) {
	// No history, base menu request, 3 raw open units, 2 solo treatment rooms:
	// all 3 units come back available with an assigned room.
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), threeMorningUnits(day))

	res, err := f.engine.AvailableSlots(context.Background(), "p1", "hydra_001", day, Options{IncludeRoomInfo: true})
	require.NoError(t, err)

	assert.Equal(t, "hydra_001_first", res.SelectedMenuID)
	assert.Equal(t, "first-visit menu", res.EligibilityReason)
	assert.Equal(t, 3, res.TotalAvailable)
	require.Len(t, res.Slots, 3)
	for _, slot := range res.Slots {
		assert.True(t, slot.Available)
		require.Len(t, slot.Rooms, 1)
		assert.Equal(t, "r1", slot.Rooms[0].ID)
		assert.Equal(t, "treatment", slot.Rooms[0].Type)
	}
}

func TestAvailableSlotsOrderedAscending(t *testing.T) {
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), threeMorningUnits(day))

	res, err := f.engine.AvailableSlots(context.Background(), "p1", "hydra_001", day, Options{})
	require.NoError(t, err)
	for i := 1; i < len(res.Slots); i++ {
		assert.True(t, res.Slots[i-1].DateTime.Before(res.Slots[i].DateTime))
	}
}

func TestAvailableSlotsValidation(t *testing.T) {
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		patientID string
		menuID    string
		from      time.Time
		wantField string
	}{
		{"missing patient", "", "hydra_001", day, "patient_id"},
		{"missing menu", "p1", "", day, "menu_id"},
		{"past date", "p1", "hydra_001", day.AddDate(0, 0, -1), "from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.AvailableSlots(ctx, tt.patientID, tt.menuID, tt.from, Options{})
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.False(t, IsUpstream(err))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}

	// Today is fine even though the evaluation time is mid-morning.
	_, err := f.engine.AvailableSlots(ctx, "p1", "hydra_001", dateOnly(testNow), Options{})
	assert.NoError(t, err)
}

func TestAvailableSlotsUpstreamFailure(t *testing.T) {
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), nil)
	f.provider.err = scheduling.ErrUnavailable

	_, err := f.engine.AvailableSlots(context.Background(), "p1", "hydra_001", day, Options{})
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
	assert.False(t, IsValidation(err))
}

func TestAvailableSlotsNoEligibleVariantIsAResult(t *testing.T) {
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), threeMorningUnits(day))
	// Concrete repeat menu requested with no visit history.
	res, err := f.engine.AvailableSlots(context.Background(), "p1", "hydra_001_repeat", day, Options{})
	require.NoError(t, err, "no eligible variant is a result, not an error")
	assert.Empty(t, res.Slots)
	assert.Zero(t, res.TotalAvailable)
	assert.NotEmpty(t, res.Constraints)
	assert.Equal(t, 0, f.provider.calls, "ineligible requests never hit the upstream provider")
}

func TestAvailableSlotsMenuMissingFromCatalog(t *testing.T) {
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), threeMorningUnits(day))

	res, err := f.engine.AvailableSlots(context.Background(), "p1", "no_such_menu", day, Options{})
	require.NoError(t, err, "configuration gaps never fail the call")
	assert.Empty(t, res.Slots)
	require.Len(t, res.Constraints, 1)
	assert.Contains(t, res.Constraints[0], "not found in catalog")
}

func TestAvailableSlotsIntervalGatePerSlotDate(t *testing.T) {
	// Last facial on Aug 25; 14-day rule opens the gate on Sep 8. A window
	// spanning the boundary must mark earlier units unavailable and later
	// units available.
	lastUse := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	day := dateOnly(testNow)
	units := []scheduling.RawTimeUnit{
		unitAt(day.AddDate(0, 0, 6).Add(10 * time.Hour)), // Sep 7: gated
		unitAt(day.AddDate(0, 0, 7).Add(10 * time.Hour)), // Sep 8: open
	}
	f := newTestEngine(t, testSnapshot(), units)
	f.history.byPatient["p1"] = &history.PatientHistory{
		PatientID: "p1",
		Reservations: []history.ReservationRecord{
			{MenuID: "hydra_001_first", Date: lastUse, Status: history.StatusCompleted},
		},
	}

	res, err := f.engine.AvailableSlots(context.Background(), "p1", "hydra_001", day, Options{DateRangeDays: 10})
	require.NoError(t, err)
	require.Len(t, res.Slots, 2)

	assert.False(t, res.Slots[0].Available)
	assert.Contains(t, res.Slots[0].Reason, "interval not satisfied until 2026-09-08")
	assert.True(t, res.Slots[1].Available)
	assert.Equal(t, 1, res.TotalAvailable)
	assert.Equal(t, "hydra_001_repeat", res.SelectedMenuID)
}

func TestAvailableSlotsNoCompatibleRoom(t *testing.T) {
	// IV menu with every IV-capable room deactivated.
	snap := testSnapshot()
	for i := range snap.Rooms {
		if snap.Rooms[i].CanIV {
			snap.Rooms[i].Active = false
		}
	}
	day := dateOnly(testNow)
	f := newTestEngine(t, snap, threeMorningUnits(day))

	res, err := f.engine.AvailableSlots(context.Background(), "p1", "iv_vit", day, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalAvailable)
	require.Len(t, res.Slots, 3)
	for _, slot := range res.Slots {
		assert.False(t, slot.Available)
		assert.Equal(t, "no compatible room", slot.Reason)
	}
}

func TestAvailableSlotsRoomInfoIsAProjection(t *testing.T) {
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), threeMorningUnits(day))
	ctx := context.Background()

	with, err := f.engine.AvailableSlots(ctx, "p1", "hydra_001", day, Options{IncludeRoomInfo: true})
	require.NoError(t, err)
	without, err := f.engine.AvailableSlots(ctx, "p1", "hydra_001", day, Options{})
	require.NoError(t, err)

	assert.Equal(t, with.TotalAvailable, without.TotalAvailable)
	for i := range without.Slots {
		assert.Equal(t, with.Slots[i].Available, without.Slots[i].Available)
		assert.Empty(t, without.Slots[i].Rooms)
	}
}

func TestAvailableSlotsIdempotent(t *testing.T) {
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), threeMorningUnits(day))
	ctx := context.Background()

	first, err := f.engine.AvailableSlots(ctx, "p1", "hydra_001", day, Options{IncludeRoomInfo: true})
	require.NoError(t, err)
	second, err := f.engine.AvailableSlots(ctx, "p1", "hydra_001", day, Options{IncludeRoomInfo: true})
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs over an unchanged snapshot yield identical output")
}

func TestAvailableSlotsTicketBoundaryRequestedConcretely(t *testing.T) {
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), threeMorningUnits(day))
	f.history.byPatient["p1"] = &history.PatientHistory{
		PatientID: "p1",
		Tickets:   map[string]int{"facial_pass": 2}, // exactly the requirement
	}

	res, err := f.engine.AvailableSlots(context.Background(), "p1", "hydra_001_tkt", day, Options{})
	require.NoError(t, err)
	assert.Equal(t, "hydra_001_tkt", res.SelectedMenuID)
	assert.Equal(t, 3, res.TotalAvailable)
}

func TestAvailableSlotsHistoryStoreFailure(t *testing.T) {
	day := dateOnly(testNow)
	f := newTestEngine(t, testSnapshot(), nil)
	f.history.err = errors.New("history store down")

	_, err := f.engine.AvailableSlots(context.Background(), "p1", "hydra_001", day, Options{})
	require.Error(t, err)
	assert.False(t, IsValidation(err))
	assert.False(t, IsUpstream(err))
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(EngineConfig{})
	require.Error(t, err)

	_, err = NewEngine(EngineConfig{Provider: &stubProvider{}})
	require.Error(t, err)

	_, err = NewEngine(EngineConfig{Provider: &stubProvider{}, Catalogs: &stubCatalogs{}})
	require.Error(t, err)
}
