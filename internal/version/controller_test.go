package version

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap/internal/canvas"
	"transitmap/internal/codec"
	"transitmap/internal/domain"
	"transitmap/internal/layout"
	"transitmap/internal/repository"
	"transitmap/internal/repository/memory"
)

type countingObserver struct {
	events map[string]int
}

func (o *countingObserver) ObserveVersionEvent(event string) {
	if o.events == nil {
		o.events = make(map[string]int)
	}
	o.events[event]++
}

// failingKV accepts reads and rejects writes
type failingKV struct {
	*memory.Store
}

func (f failingKV) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func testNetwork() *domain.Network {
	n := domain.NewNetwork()
	for i, id := range []string{"A", "B", "C"} {
		n.AddStation(&domain.Station{ID: id, Name: "Station " + id})
		n.Coordinates[id] = domain.Coordinate{X: float64(i * 100), Y: 0}
	}
	return n
}

type fixture struct {
	ctx      context.Context
	graph    *canvas.Graph
	store    *layout.Store
	ctrl     *Controller
	observer *countingObserver
}

func newFixture(t *testing.T, kv repository.KeyValueStore) *fixture {
	t.Helper()
	if kv == nil {
		kv = memory.New()
	}
	f := &fixture{
		ctx:      context.Background(),
		graph:    canvas.New(testNetwork()),
		store:    layout.NewStore(kv, ""),
		observer: &countingObserver{},
	}
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.ctrl = New(f.store, f.graph,
		WithObserver(f.observer),
		WithClock(func() time.Time { return clock }),
	)
	f.ctrl.Initialize(f.ctx)
	f.graph.Drain()
	return f
}

func (f *fixture) drag(t *testing.T, id string, x, y float64) {
	t.Helper()
	f.graph.ApplyPosition(id, x, y)
	require.NoError(t, f.ctrl.NotifyStationMoved(f.ctx, id))
}

func (f *fixture) versions(t *testing.T) []domain.SnapshotID {
	t.Helper()
	ids, err := f.store.List(f.ctx)
	require.NoError(t, err)
	return ids
}

func TestInitialize(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, State{ActiveVersionID: domain.OriginalID}, f.ctrl.State())
	require.True(t, f.store.HasOriginal())
	assert.True(t, f.store.Original().Equal(f.graph.Layout()))
	assert.Empty(t, f.versions(t))
}

func TestInitialize_KeepsExistingOriginal(t *testing.T) {
	f := newFixture(t, nil)
	f.graph.ApplyPosition("A", 999, 999)

	f.ctrl.Initialize(f.ctx)
	assert.Equal(t, 4.0, f.store.Original()["A"].X)
}

func TestDragOnOriginal_MarksUnsavedWithoutWriting(t *testing.T) {
	f := newFixture(t, nil)

	f.drag(t, "A", 50, 60)

	assert.True(t, f.ctrl.State().HasUnsavedChanges)
	assert.Equal(t, domain.OriginalID, f.ctrl.State().ActiveVersionID)
	assert.Empty(t, f.versions(t))
	assert.Equal(t, 4.0, f.store.Original()["A"].X, "ORIGINAL itself is untouched")
}

func TestSaveAsNewVersion(t *testing.T) {
	f := newFixture(t, nil)
	f.drag(t, "A", 50, 60)

	id, err := f.ctrl.SaveAsNewVersion(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, State{ActiveVersionID: id}, f.ctrl.State())
	assert.False(t, id.IsOriginal())

	saved, err := f.store.Get(f.ctx, id)
	require.NoError(t, err)
	assert.True(t, saved.Equal(f.graph.Layout()))
	assert.Equal(t, []domain.SnapshotID{id}, f.versions(t))
}

func TestSaveAsNewVersion_DistinctIDsSameInstant(t *testing.T) {
	f := newFixture(t, nil)

	first, err := f.ctrl.SaveAsNewVersion(f.ctx)
	require.NoError(t, err)
	second, err := f.ctrl.SaveAsNewVersion(f.ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, []domain.SnapshotID{second, first}, f.versions(t))
}

func TestDragOnSavedVersion_AutoSaves(t *testing.T) {
	f := newFixture(t, nil)
	id, err := f.ctrl.SaveAsNewVersion(f.ctx)
	require.NoError(t, err)

	f.drag(t, "B", -10, -20)

	assert.False(t, f.ctrl.State().HasUnsavedChanges)
	saved, err := f.store.Get(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, -10.0, saved["B"].X)
	assert.True(t, saved.Equal(f.graph.Layout()))
	assert.Equal(t, 1, f.observer.events[EventAutoSave])
}

func TestLabelChangeOnSavedVersion_AutoSaves(t *testing.T) {
	f := newFixture(t, nil)
	id, err := f.ctrl.SaveAsNewVersion(f.ctx)
	require.NoError(t, err)

	f.graph.ApplyLabelAnchor("C", domain.AnchorTopLeft)
	require.NoError(t, f.ctrl.NotifyStationMoved(f.ctx, "C"))

	saved, err := f.store.Get(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.AnchorTopLeft, saved["C"].LabelPos)
}

func TestAutoSaveFailure(t *testing.T) {
	kv := failingKV{memory.New()}
	f := newFixture(t, kv)

	// seed a version directly so the controller can load it
	good := layout.NewStore(kv.Store, "")
	id := domain.NewSnapshotID(time.Now())
	require.NoError(t, good.Put(f.ctx, id, f.graph.Layout()))
	require.Equal(t, id, f.ctrl.LoadVersion(f.ctx, id))

	f.graph.ApplyPosition("A", 1, 1)
	err := f.ctrl.NotifyStationMoved(f.ctx, "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, id, f.ctrl.State().ActiveVersionID)
}

func TestLoadOriginal_DiscardsUnsavedEdits(t *testing.T) {
	f := newFixture(t, nil)
	f.drag(t, "A", 50, 60)

	f.ctrl.LoadOriginal()

	a, _ := f.graph.Entry("A")
	assert.Equal(t, 4.0, a.X)
	assert.Equal(t, State{ActiveVersionID: domain.OriginalID}, f.ctrl.State())
}

func TestLoadVersion_RoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	f.drag(t, "A", 50, 60)
	f.graph.ApplyLabelAnchor("A", domain.AnchorRight)
	id, err := f.ctrl.SaveAsNewVersion(f.ctx)
	require.NoError(t, err)

	f.ctrl.LoadOriginal()
	got := f.ctrl.LoadVersion(f.ctx, id)

	assert.Equal(t, id, got)
	a, _ := f.graph.Entry("A")
	assert.Equal(t, domain.LayoutEntry{X: 50, Y: 60, LabelPos: domain.AnchorRight}, a)
	assert.Equal(t, State{ActiveVersionID: id}, f.ctrl.State())
}

func TestLoadVersion_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.drag(t, "A", 50, 60)
	f.graph.ApplyLabelAnchor("B", domain.AnchorTopLeft)
	id, err := f.ctrl.SaveAsNewVersion(f.ctx)
	require.NoError(t, err)
	f.ctrl.LoadOriginal()

	f.ctrl.LoadVersion(f.ctx, id)
	once := f.graph.Layout()
	onceState := f.ctrl.State()

	f.ctrl.LoadVersion(f.ctx, id)
	assert.Equal(t, once, f.graph.Layout())
	assert.Equal(t, onceState, f.ctrl.State())
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			f := newFixture(t, nil)
			_, err := f.ctrl.SaveAsNewVersion(f.ctx)
			require.NoError(t, err)
			f.drag(t, "A", 0, -12.5)
			f.graph.ApplyLabelAnchor("C", domain.AnchorLeft)
			require.NoError(t, f.ctrl.NotifyStationMoved(f.ctx, "C"))

			exported, err := f.ctrl.ExportActiveVersion(f.ctx)
			require.NoError(t, err)

			c, err := codec.ForFormat(format)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, c.Export(exported, &buf))

			for _, id := range f.graph.StationIDs() {
				f.graph.ApplyPosition(id, 999, 999)
				f.graph.ApplyLabelAnchor(id, domain.AnchorCenter)
			}

			id, err := f.ctrl.ImportAsNewVersion(f.ctx, buf.Bytes())
			require.NoError(t, err)
			assert.True(t, id.IsImported())
			assert.Equal(t, id, f.ctrl.State().ActiveVersionID)

			assert.Equal(t, exported, f.graph.Layout())
		})
	}
}

func TestLoadVersion_UnknownFallsBackToOriginal(t *testing.T) {
	f := newFixture(t, nil)
	f.drag(t, "A", 50, 60)

	got := f.ctrl.LoadVersion(f.ctx, "layout_missing")

	assert.Equal(t, domain.OriginalID, got)
	assert.Equal(t, State{ActiveVersionID: domain.OriginalID}, f.ctrl.State())
	a, _ := f.graph.Entry("A")
	assert.Equal(t, 4.0, a.X)
	assert.Equal(t, 1, f.observer.events[EventFallback])
}

func TestLoadVersion_PartialSnapshotLeavesOthers(t *testing.T) {
	f := newFixture(t, nil)
	id := domain.NewSnapshotID(time.Now())
	require.NoError(t, f.store.Put(f.ctx, id, domain.Snapshot{
		"A":       domain.NewLayoutEntry(7, 8, domain.AnchorLeft),
		"UNKNOWN": domain.NewLayoutEntry(1, 1, domain.AnchorLeft),
	}))
	f.graph.ApplyPosition("B", 300, 300)

	f.ctrl.LoadVersion(f.ctx, id)

	b, _ := f.graph.Entry("B")
	assert.Equal(t, 300.0, b.X)
	a, _ := f.graph.Entry("A")
	assert.Equal(t, 7.0, a.X)
}

func TestLoadVersion_OriginalID(t *testing.T) {
	f := newFixture(t, nil)
	f.drag(t, "A", 50, 60)

	assert.Equal(t, domain.OriginalID, f.ctrl.LoadVersion(f.ctx, domain.OriginalID))
	assert.False(t, f.ctrl.State().HasUnsavedChanges)
}

func TestDestroyAllVersions(t *testing.T) {
	f := newFixture(t, nil)
	f.drag(t, "A", 50, 60)
	_, err := f.ctrl.SaveAsNewVersion(f.ctx)
	require.NoError(t, err)
	f.drag(t, "B", 70, 80)

	require.NoError(t, f.ctrl.DestroyAllVersions(f.ctx))

	assert.Empty(t, f.versions(t))
	assert.Equal(t, State{ActiveVersionID: domain.OriginalID}, f.ctrl.State())
	require.True(t, f.store.HasOriginal())

	// re-captured from the initial placement, not the dragged positions
	a, _ := f.graph.Entry("A")
	assert.Equal(t, 4.0, a.X)
	b, _ := f.graph.Entry("B")
	assert.Equal(t, 104.0, b.X)
}

func TestExportActiveVersion(t *testing.T) {
	t.Run("original exports live layout", func(t *testing.T) {
		f := newFixture(t, nil)
		f.drag(t, "A", 50, 60)

		snap, err := f.ctrl.ExportActiveVersion(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 50.0, snap["A"].X)
		assert.Len(t, snap, 3)
	})

	t.Run("saved version exports stored snapshot", func(t *testing.T) {
		f := newFixture(t, nil)
		id, err := f.ctrl.SaveAsNewVersion(f.ctx)
		require.NoError(t, err)

		snap, err := f.ctrl.ExportActiveVersion(f.ctx)
		require.NoError(t, err)
		stored, err := f.store.Get(f.ctx, id)
		require.NoError(t, err)
		assert.True(t, snap.Equal(stored))
	})
}

func TestImportAsNewVersion(t *testing.T) {
	f := newFixture(t, nil)

	id, err := f.ctrl.ImportAsNewVersion(f.ctx, []byte(`{"A": {"x": 11, "y": 12, "label_pos": "TR"}}`))
	require.NoError(t, err)

	assert.True(t, id.IsImported())
	assert.Equal(t, State{ActiveVersionID: id}, f.ctrl.State())
	a, _ := f.graph.Entry("A")
	assert.Equal(t, domain.LayoutEntry{X: 11, Y: 12, LabelPos: domain.AnchorTopRight}, a)
	assert.Equal(t, []domain.SnapshotID{id}, f.versions(t))
}

func TestImportAsNewVersion_EmptyMapping(t *testing.T) {
	f := newFixture(t, nil)
	before := f.graph.Layout()

	id, err := f.ctrl.ImportAsNewVersion(f.ctx, []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, id, f.ctrl.State().ActiveVersionID)
	assert.True(t, before.Equal(f.graph.Layout()))
}

func TestImportAsNewVersion_MalformedLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	f.drag(t, "A", 50, 60)
	before := f.ctrl.State()

	_, err := f.ctrl.ImportAsNewVersion(f.ctx, []byte(`{"A": {"x": "oops", "y": 1}}`))

	require.Error(t, err)
	assert.True(t, domain.IsMalformedImport(err))
	assert.Equal(t, before, f.ctrl.State())
	assert.Empty(t, f.versions(t))
	assert.Equal(t, 1, f.observer.events[EventImportFailed])
}
