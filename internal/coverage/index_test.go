package coverage

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/badursun/Roqua-sub000/internal/events"
	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/internal/spatial"
)

type memoryStore struct {
	mu    sync.Mutex
	saved []string
	saves int
	err   error
}

func (m *memoryStore) SaveCells(_ context.Context, cells []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.saved = append([]string(nil), cells...)
	return nil
}

func (m *memoryStore) LoadCells(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.saved...), nil
}

func (m *memoryStore) DeleteAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func region(lat, lon, radius float64) models.VisitedRegion {
	return models.VisitedRegion{Latitude: lat, Longitude: lon, Radius: radius, VisitCount: 1}
}

func TestCellSizeDerivedFromExplorationRadius(t *testing.T) {
	x := NewIndex(200, 6, nil, nil, nil)
	if got, want := x.CellSizeDegrees(), 100.0/spatial.MetersPerDegree; math.Abs(got-want) > 1e-12 {
		t.Errorf("cell size = %g, want %g", got, want)
	}
	cell := 100.0 / spatial.MetersPerDegree
	want := (180 / cell) * (360 / cell)
	if math.Abs(x.TotalWorldCells()-want) > 1 {
		t.Errorf("total cells = %g, want %g", x.TotalWorldCells(), want)
	}

	x.SetExplorationRadius(400)
	if got := x.TotalWorldCells(); math.Abs(got-want/4) > 1 {
		t.Errorf("total cells after resize = %g, want %g", got, want/4)
	}
}

func TestCellsForRegionCoversFootprint(t *testing.T) {
	cellDeg := spatial.MetersToDegrees(75)
	keys := CellsForRegion(41.0082, 28.9784, 150, cellDeg)

	// cells are 75m tall and ~57m wide at this latitude: ~17 centers fit
	if len(keys) < 12 || len(keys) > 24 {
		t.Errorf("got %d cells, expected roughly 17", len(keys))
	}

	center := CellKey(41.0082, 28.9784, cellDeg)
	found := false
	for _, k := range keys {
		if k == center {
			found = true
		}
	}
	if !found {
		t.Errorf("center cell %s not included", center)
	}
}

func TestCellsForRegionDegenerate(t *testing.T) {
	if keys := CellsForRegion(0, 0, 0, 0.001); keys != nil {
		t.Errorf("zero radius produced %d cells", len(keys))
	}
}

func TestPercentageMonotonic(t *testing.T) {
	store := &memoryStore{}
	x := NewIndex(150, 6, store, nil, nil)
	ctx := context.Background()

	prev := x.Percentage()
	for i := 0; i < 20; i++ {
		x.Register(ctx, region(41.0+float64(i)*0.001, 29.0, 150))
		pct := x.Percentage()
		if pct < prev {
			t.Fatalf("percentage decreased from %g to %g", prev, pct)
		}
		prev = pct
	}
	if prev <= 0 {
		t.Fatal("percentage did not grow")
	}
}

func TestRegisterContainedRegionLeavesPercentageUnchanged(t *testing.T) {
	store := &memoryStore{}
	pub := &recorder{}
	x := NewIndex(150, 6, store, pub, nil)
	ctx := context.Background()

	if added := x.Register(ctx, region(41.0, 29.0, 150)); added == 0 {
		t.Fatal("first registration added no cells")
	}
	before := x.Percentage()
	saves := store.saves

	if added := x.Register(ctx, region(41.0, 29.0, 150)); added != 0 {
		t.Errorf("re-registration added %d cells", added)
	}
	if x.Percentage() != before {
		t.Errorf("percentage changed from %g to %g", before, x.Percentage())
	}
	if store.saves != saves {
		t.Error("unchanged set was persisted again")
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.PercentageChanged {
		t.Errorf("expected one percentage event, got %d", len(pub.events))
	}
	if pub.events[0].OldPercentage != 0 || pub.events[0].NewPercentage != before {
		t.Errorf("event carried %g -> %g", pub.events[0].OldPercentage, pub.events[0].NewPercentage)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewIndex(150, 6, nil, nil, nil)
	a.Register(ctx, region(41.0, 29.0, 150))
	a.Register(ctx, region(39.9, 32.8, 150))

	b := NewIndex(150, 6, nil, nil, nil)
	b.ImportCells(a.ExportCells())

	ea, eb := a.ExportCells(), b.ExportCells()
	if len(ea) != len(eb) {
		t.Fatalf("cell count %d != %d", len(ea), len(eb))
	}
	for i := range ea {
		if ea[i] != eb[i] {
			t.Fatalf("cell %d differs: %s vs %s", i, ea[i], eb[i])
		}
	}
	if a.Percentage() != b.Percentage() {
		t.Errorf("percentage %g != %g", a.Percentage(), b.Percentage())
	}
}

func TestLoadAndReset(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	a := NewIndex(150, 6, store, nil, nil)
	a.Register(ctx, region(41.0, 29.0, 150))

	b := NewIndex(150, 6, store, nil, nil)
	if err := b.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.CellCount() != a.CellCount() {
		t.Errorf("loaded %d cells, want %d", b.CellCount(), a.CellCount())
	}

	if err := b.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if b.CellCount() != 0 || b.Percentage() != 0 || len(store.saved) != 0 {
		t.Error("reset left cells behind")
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	x := NewIndex(150, 6, store, nil, nil)
	if added := x.Register(context.Background(), region(41.0, 29.0, 150)); added == 0 {
		t.Fatal("no cells added")
	}
	if x.CellCount() == 0 {
		t.Error("in-memory cells lost after persist failure")
	}
}

func TestFormattedPercentage(t *testing.T) {
	x := NewIndex(150, 3, nil, nil, nil)
	if got := x.FormattedPercentage(); got != "0.000" {
		t.Errorf("FormattedPercentage = %q", got)
	}
}
