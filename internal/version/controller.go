package version

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"transitmap/internal/codec"
	"transitmap/internal/domain"
	"transitmap/internal/layout"
)

// GraphAccessor is the live node state owned by the rendering layer
type GraphAccessor interface {
	// StationIDs lists every station in a stable order
	StationIDs() []string
	// Entry returns the current position and label anchor of a station
	Entry(id string) (domain.LayoutEntry, bool)
	ApplyPosition(id string, x, y float64)
	ApplyLabelAnchor(id string, key domain.AnchorKey)
}

// HomePositioner is implemented by graphs that remember where each station
// was first placed. Re-captures of ORIGINAL prefer these positions.
type HomePositioner interface {
	Home(id string) (domain.LayoutEntry, bool)
}

// Observer receives a notification for each version transition
type Observer interface {
	ObserveVersionEvent(event string)
}

// Version transition names reported to the Observer
const (
	EventLoadOriginal = "load_original"
	EventLoadVersion  = "load_version"
	EventFallback     = "fallback_original"
	EventAutoSave     = "auto_save"
	EventSave         = "save_new"
	EventDestroyAll   = "destroy_all"
	EventExport       = "export"
	EventImport       = "import"
	EventImportFailed = "import_failed"
)

// State is the externally visible controller state
type State struct {
	ActiveVersionID   domain.SnapshotID `json:"active_version_id"`
	HasUnsavedChanges bool              `json:"has_unsaved_changes"`
}

// Controller decides which snapshot is active and moves layouts between the
// live graph and the snapshot store. It is not safe for concurrent use; the
// caller serializes events.
type Controller struct {
	store    *layout.Store
	graph    GraphAccessor
	logger   *zap.Logger
	observer Observer
	now      func() time.Time

	active  domain.SnapshotID
	unsaved bool
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger used for recoverable warnings
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithObserver attaches a transition observer (metrics)
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithClock overrides the time source for snapshot ids
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller. Call Initialize before handling events.
func New(store *layout.Store, graph GraphAccessor, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		graph:  graph,
		logger: zap.NewNop(),
		now:    time.Now,
		active: domain.OriginalID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the active version and unsaved flag
func (c *Controller) State() State {
	return State{ActiveVersionID: c.active, HasUnsavedChanges: c.unsaved}
}

// Store exposes the underlying snapshot store for read-only listing
func (c *Controller) Store() *layout.Store {
	return c.store
}

// Initialize captures ORIGINAL from the live graph if none exists yet and
// makes it active.
func (c *Controller) Initialize(_ context.Context) {
	if !c.store.HasOriginal() {
		c.store.SetOriginal(c.captureOriginal())
		c.logger.Info("captured original layout", zap.Int("stations", len(c.store.Original())))
	}
	c.active = domain.OriginalID
	c.unsaved = false
}

// LoadOriginal applies ORIGINAL to the graph and makes it active. Stations
// the snapshot does not cover keep their current placement.
func (c *Controller) LoadOriginal() {
	if !c.store.HasOriginal() && len(c.graph.StationIDs()) > 0 {
		c.store.SetOriginal(c.captureOriginal())
		c.logger.Info("re-captured original layout", zap.Int("stations", len(c.store.Original())))
	}
	c.apply(c.store.Original())
	c.active = domain.OriginalID
	c.unsaved = false
	c.observe(EventLoadOriginal)
}

// LoadVersion applies a saved snapshot. An unknown id (or an unreadable
// store) falls back to ORIGINAL with a warning. It returns the id that
// ended up active.
func (c *Controller) LoadVersion(ctx context.Context, id domain.SnapshotID) domain.SnapshotID {
	if id.IsOriginal() {
		c.LoadOriginal()
		return domain.OriginalID
	}

	snap, err := c.store.Get(ctx, id)
	if err != nil {
		var nf *domain.SnapshotNotFoundError
		if errors.As(err, &nf) {
			c.logger.Warn("layout version not found, loading original", zap.String("version", string(id)))
		} else {
			c.logger.Warn("failed to read layout version, loading original",
				zap.String("version", string(id)), zap.Error(err))
		}
		c.observe(EventFallback)
		c.LoadOriginal()
		return domain.OriginalID
	}

	c.apply(snap)
	c.active = id
	c.unsaved = false
	c.observe(EventLoadVersion)
	return id
}

// NotifyStationMoved records a drag-release or label change. Edits to
// ORIGINAL stay in the live graph and mark the state unsaved; edits to a
// saved version are written through immediately.
func (c *Controller) NotifyStationMoved(ctx context.Context, stationID string) error {
	if c.active.IsOriginal() {
		c.unsaved = true
		return nil
	}
	if err := c.store.Put(ctx, c.active, c.Capture()); err != nil {
		return fmt.Errorf("auto-save %s after moving %s: %w", c.active, stationID, err)
	}
	c.observe(EventAutoSave)
	return nil
}

// SaveAsNewVersion stores the live layout under a fresh id and makes it active
func (c *Controller) SaveAsNewVersion(ctx context.Context) (domain.SnapshotID, error) {
	id := domain.NewSnapshotID(c.now())
	if err := c.store.Put(ctx, id, c.Capture()); err != nil {
		return "", fmt.Errorf("save new version: %w", err)
	}
	c.active = id
	c.unsaved = false
	c.observe(EventSave)
	c.logger.Info("saved layout version", zap.String("version", string(id)))
	return id, nil
}

// DestroyAllVersions deletes every saved version, forgets ORIGINAL and then
// loads a freshly captured ORIGINAL. Confirmation is the caller's job.
func (c *Controller) DestroyAllVersions(ctx context.Context) error {
	if err := c.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("destroy versions: %w", err)
	}
	c.observe(EventDestroyAll)
	c.LoadOriginal()
	c.logger.Info("destroyed all layout versions")
	return nil
}

// ExportActiveVersion returns the active layout in the persisted format.
// For ORIGINAL this is the live layout, including unsaved edits.
func (c *Controller) ExportActiveVersion(ctx context.Context) (domain.Snapshot, error) {
	if c.active.IsOriginal() {
		c.observe(EventExport)
		return c.Capture(), nil
	}
	snap, err := c.store.Get(ctx, c.active)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", c.active, err)
	}
	c.observe(EventExport)
	return snap, nil
}

// ImportAsNewVersion validates a serialized snapshot (JSON or YAML), stores
// it under a new id and loads it. Invalid payloads fail with a
// *domain.MalformedImportError and leave the state untouched.
func (c *Controller) ImportAsNewVersion(ctx context.Context, payload []byte) (domain.SnapshotID, error) {
	snap, err := codec.ParseSnapshot(payload)
	if err != nil {
		c.observe(EventImportFailed)
		return "", err
	}

	id := domain.NewImportedSnapshotID(c.now())
	if err := c.store.Put(ctx, id, snap); err != nil {
		return "", fmt.Errorf("store imported layout: %w", err)
	}
	c.observe(EventImport)
	c.logger.Info("imported layout version", zap.String("version", string(id)), zap.Int("stations", len(snap)))
	return c.LoadVersion(ctx, id), nil
}

// Capture reads the full live layout from the graph
func (c *Controller) Capture() domain.Snapshot {
	ids := c.graph.StationIDs()
	snap := make(domain.Snapshot, len(ids))
	for _, id := range ids {
		if e, ok := c.graph.Entry(id); ok {
			snap[id] = domain.NewLayoutEntry(e.X, e.Y, e.LabelPos)
		}
	}
	return snap
}

func (c *Controller) captureOriginal() domain.Snapshot {
	snap := c.Capture()
	home, ok := c.graph.(HomePositioner)
	if !ok {
		return snap
	}
	for id, e := range snap {
		if h, ok := home.Home(id); ok {
			snap[id] = domain.NewLayoutEntry(h.X, h.Y, e.LabelPos)
		}
	}
	return snap
}

func (c *Controller) apply(snap domain.Snapshot) {
	for _, id := range c.graph.StationIDs() {
		e, ok := snap[id]
		if !ok {
			continue
		}
		c.graph.ApplyPosition(id, e.X, e.Y)
		c.graph.ApplyLabelAnchor(id, e.LabelPos.OrDefault())
	}
}

func (c *Controller) observe(event string) {
	if c.observer != nil {
		c.observer.ObserveVersionEvent(event)
	}
}
