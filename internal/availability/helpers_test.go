package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clinicbook/reservation-platform/internal/catalog"
	"github.com/clinicbook/reservation-platform/internal/history"
	"github.com/clinicbook/reservation-platform/internal/scheduling"
	"github.com/clinicbook/reservation-platform/pkg/logging"
)

var testNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

type stubCatalogs struct {
	snap *catalog.Snapshot
	err  error
}

func (s *stubCatalogs) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	return s.snap, s.err
}

type stubHistory struct {
	byPatient map[string]*history.PatientHistory
	err       error
}

func (s *stubHistory) VisitHistory(ctx context.Context, patientID string) (*history.PatientHistory, error) {
	if s.err != nil {
		return nil, s.err
	}
	if h, ok := s.byPatient[patientID]; ok {
		return h, nil
	}
	return &history.PatientHistory{PatientID: patientID}, nil
}

type stubProvider struct {
	units []scheduling.RawTimeUnit
	err   error
	calls int
}

func (s *stubProvider) FetchRawTimeUnits(ctx context.Context, from, to time.Time) ([]scheduling.RawTimeUnit, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []scheduling.RawTimeUnit
	for _, u := range s.units {
		if !u.DateTime.Before(from) && u.DateTime.Before(to) {
			out = append(out, u)
		}
	}
	return out, nil
}

func unitAt(t time.Time) scheduling.RawTimeUnit {
	return scheduling.RawTimeUnit{
		Date:     t.Format("2006-01-02"),
		Time:     t.Format("15:04"),
		DateTime: t,
	}
}

// testSnapshot builds the standard fixture: a facial base menu with all three
// variants, an infusion base menu, two solo treatment rooms, and one pair
// group holding a treatment room and an IV room.
func testSnapshot() *catalog.Snapshot {
	return &catalog.Snapshot{
		Menus: []catalog.Menu{
			{ID: "hydra_001_first", BaseMenuID: "hydra_001", Name: "HydraFacial (first visit)", Variant: catalog.VariantFirstTime, Category: "facial", DurationMins: 60, Active: true},
			{ID: "hydra_001_repeat", BaseMenuID: "hydra_001", Name: "HydraFacial (repeat)", Variant: catalog.VariantRepeat, Category: "facial", DurationMins: 45, Active: true},
			{ID: "hydra_001_tkt", BaseMenuID: "hydra_001", Name: "HydraFacial (ticket)", Variant: catalog.VariantTicket, Category: "facial", TicketType: "facial_pass", RequiredTickets: 2, DurationMins: 45, Active: true},
			{ID: "iv_vit_first", BaseMenuID: "iv_vit", Name: "Vitamin drip (first visit)", Variant: catalog.VariantFirstTime, Category: "vitamin infusion", DurationMins: 30, Active: true},
			{ID: "iv_vit_repeat", BaseMenuID: "iv_vit", Name: "Vitamin drip (repeat)", Variant: catalog.VariantRepeat, Category: "vitamin infusion", DurationMins: 30, Active: true},
		},
		Rooms: []catalog.Room{
			{ID: "r1", Name: "Room 1", CanTreatment: true, MaxCapacity: 1, Active: true},
			{ID: "r2", Name: "Room 2", CanTreatment: true, MaxCapacity: 1, Active: true},
			{ID: "p1a", Name: "Pair A-1", CanTreatment: true, PairGroupID: "pgA", MaxCapacity: 1, Active: true},
			{ID: "p1b", Name: "Pair A-2", CanTreatment: true, CanIV: true, PairGroupID: "pgA", MaxCapacity: 1, Active: true},
		},
		IntervalRules: []catalog.IntervalRule{
			{Category: "facial", MinIntervalDays: 14},
		},
		LoadedAt: testNow,
	}
}

type engineFixture struct {
	engine   *Engine
	provider *stubProvider
	history  *stubHistory
	catalogs *stubCatalogs
}

func newTestEngine(t *testing.T, snap *catalog.Snapshot, units []scheduling.RawTimeUnit) *engineFixture {
	t.Helper()
	f := &engineFixture{
		provider: &stubProvider{units: units},
		history:  &stubHistory{byPatient: map[string]*history.PatientHistory{}},
		catalogs: &stubCatalogs{snap: snap},
	}
	engine, err := NewEngine(EngineConfig{
		Provider: f.provider,
		Catalogs: f.catalogs,
		History:  f.history,
		Logger:   logging.NewWithWriter("error", testWriter{}),
		Now:      func() time.Time { return testNow },
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

// threeMorningUnits returns units at 10:00, 10:30, 11:00 on the given day.
func threeMorningUnits(day time.Time) []scheduling.RawTimeUnit {
	return []scheduling.RawTimeUnit{
		unitAt(day.Add(10 * time.Hour)),
		unitAt(day.Add(10*time.Hour + 30*time.Minute)),
		unitAt(day.Add(11 * time.Hour)),
	}
}
