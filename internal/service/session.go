package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"transitmap/internal/canvas"
	"transitmap/internal/domain"
	"transitmap/internal/layout"
	"transitmap/internal/pathselect"
	"transitmap/internal/version"
)

// ErrUnknownStation is returned for events naming a station not on the map
var ErrUnknownStation = errors.New("unknown station")

// Metrics receives session activity counters
type Metrics interface {
	version.Observer
	ObservePathQuery(found bool)
}

// Option configures a Session
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics Metrics
	now     func() time.Time
}

// WithLogger sets the session logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics attaches a metrics sink
func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock overrides the time source used for new version ids
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// TapResult is returned after a station tap
type TapResult struct {
	Outcome    pathselect.Outcome `json:"outcome"`
	Anchors    []string           `json:"anchors"`
	Highlight  []string           `json:"highlight"`
	LineID     string             `json:"line_id,omitempty"`
	BranchKey  string             `json:"branch,omitempty"`
	StatusText string             `json:"status_text"`
}

// SelectionView is the current path selection and label-editing target, for
// a canvas that reconnects
type SelectionView struct {
	Anchors     []string `json:"anchors"`
	Path        []string `json:"path"`
	LabelTarget string   `json:"label_target,omitempty"`
}

// Session serializes user events against one map
type Session struct {
	mu sync.Mutex

	network  *domain.Network
	graph    *domain.Graph
	canvas   *canvas.Graph
	ctrl     *version.Controller
	selector *pathselect.Selector
	bus      *EventBus
	logger   *zap.Logger
	metrics  Metrics

	labelTarget string
}

// NewSession places the network on a fresh canvas, captures ORIGINAL and
// returns a session ready for events.
func NewSession(ctx context.Context, network *domain.Network, store *layout.Store, bus *EventBus, opts ...Option) *Session {
	o := options{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	graph, skipped := domain.DeriveGraph(network)
	for _, hop := range skipped {
		o.logger.Warn("skipping edge with unknown station", zap.String("edge", hop))
	}

	cv := canvas.New(network)
	ctrlOpts := []version.Option{version.WithLogger(o.logger), version.WithClock(o.now)}
	if o.metrics != nil {
		ctrlOpts = append(ctrlOpts, version.WithObserver(o.metrics))
	}

	s := &Session{
		network:  network,
		graph:    graph,
		canvas:   cv,
		ctrl:     version.New(store, cv, ctrlOpts...),
		selector: pathselect.NewSelector(network.Lines),
		bus:      bus,
		logger:   o.logger,
		metrics:  o.metrics,
	}
	s.ctrl.Initialize(ctx)
	s.canvas.Drain()

	s.logger.Info("session ready",
		zap.Int("stations", len(graph.Nodes)),
		zap.Int("edges", len(graph.Edges)),
		zap.Int("skipped_edges", len(skipped)),
	)
	return s
}

// Graph returns the derived nodes and edges. It never changes.
func (s *Session) Graph() *domain.Graph {
	return s.graph
}

// Network returns the reference data the session was built from
func (s *Session) Network() *domain.Network {
	return s.network
}

// Layout returns the live position and anchor of every station
func (s *Session) Layout() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas.Layout()
}

// Versions returns the toolbar state
func (s *Session) Versions(ctx context.Context) (VersionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(ctx)
}

// SaveAsNewVersion stores the live layout as a new version
func (s *Session) SaveAsNewVersion(ctx context.Context) (VersionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ctrl.SaveAsNewVersion(ctx); err != nil {
		return VersionView{}, err
	}
	return s.versionsChanged(ctx)
}

// LoadVersion activates a saved version, or ORIGINAL for domain.OriginalID.
// Unknown ids fall back to ORIGINAL.
func (s *Session) LoadVersion(ctx context.Context, id domain.SnapshotID) (VersionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctrl.LoadVersion(ctx, id)
	s.refreshLabelTarget()
	return s.versionsChanged(ctx)
}

// ResetToOriginal reloads ORIGINAL, discarding unsaved edits
func (s *Session) ResetToOriginal(ctx context.Context) (VersionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctrl.LoadOriginal()
	s.refreshLabelTarget()
	return s.versionsChanged(ctx)
}

// DestroyAllVersions deletes every saved version and re-captures ORIGINAL
func (s *Session) DestroyAllVersions(ctx context.Context) (VersionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctrl.DestroyAllVersions(ctx); err != nil {
		return VersionView{}, err
	}
	s.refreshLabelTarget()
	return s.versionsChanged(ctx)
}

// ExportActiveVersion returns the active id and its layout
func (s *Session) ExportActiveVersion(ctx context.Context) (domain.SnapshotID, domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.ctrl.ExportActiveVersion(ctx)
	if err != nil {
		return "", nil, err
	}
	return s.ctrl.State().ActiveVersionID, snap, nil
}

// ImportAsNewVersion stores a serialized layout as a new version and loads
// it. Malformed input leaves the session untouched.
func (s *Session) ImportAsNewVersion(ctx context.Context, payload []byte) (VersionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ctrl.ImportAsNewVersion(ctx, payload); err != nil {
		if domain.IsMalformedImport(err) {
			s.bus.Publish(Event{Type: EventImportFailed, Payload: map[string]string{"error": err.Error()}})
		}
		return VersionView{}, err
	}
	s.refreshLabelTarget()
	return s.versionsChanged(ctx)
}

// StationDragReleased records the final position of a dragged station
func (s *Session) StationDragReleased(ctx context.Context, id string, x, y float64) (VersionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canvas.Has(id) {
		return VersionView{}, fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}
	s.canvas.ApplyPosition(id, x, y)
	s.stationEdited(ctx, id)
	return s.versionsChanged(ctx)
}

// StationTapped selects a station for label editing and feeds the path
// selector. augmenting is the shift modifier.
func (s *Session) StationTapped(id string, augmenting bool) (TapResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canvas.Has(id) {
		return TapResult{}, fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}

	s.labelTarget = id
	res := s.selector.SelectStation(id, augmenting)

	var status string
	switch res.Outcome {
	case pathselect.OutcomePath:
		status = pathselect.Describe(res.Segment, s.network.StationName)
		s.observePath(true)
	case pathselect.OutcomeNoPath:
		status = pathselect.DescribeNoPath(res.NoPathBetween[0], res.NoPathBetween[1], s.network.StationName)
		s.observePath(false)
	default:
		status = s.stationInfo(id)
	}

	highlight := res.Highlight()
	s.canvas.Highlight(highlight)
	s.canvas.SetStatus(status)
	s.flush()

	return TapResult{
		Outcome:    res.Outcome,
		Anchors:    res.Anchors,
		Highlight:  highlight,
		LineID:     res.Segment.LineID,
		BranchKey:  res.Segment.BranchKey,
		StatusText: status,
	}, nil
}

// BackgroundTapped clears the path selection and the label-editing target
func (s *Session) BackgroundTapped() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selector.Clear()
	s.labelTarget = ""
	s.canvas.Highlight(nil)
	s.canvas.SetStatus(NoSelectionText)
	s.flush()
}

// LabelKeypress moves the label of the selected station. It reports false
// when no station is selected or the key is not a direction key.
func (s *Session) LabelKeypress(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.labelTarget == "" {
		return false, nil
	}
	anchor, ok := domain.AnchorForKeypress(code)
	if !ok {
		return false, nil
	}

	s.canvas.ApplyLabelAnchor(s.labelTarget, anchor)
	s.stationEdited(ctx, s.labelTarget)
	if _, err := s.versionsChanged(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Selection returns the selected anchors, the highlighted path and the
// label-editing target
func (s *Session) Selection() SelectionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SelectionView{
		Anchors:     s.selector.Anchors(),
		Path:        s.selector.Path(),
		LabelTarget: s.labelTarget,
	}
}

// LabelTarget returns the station selected for label editing, if any
func (s *Session) LabelTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.labelTarget
}

// stationEdited forwards a move or label change to the controller. A failed
// auto-save is logged and shown in the info panel; the edit stays on screen.
func (s *Session) stationEdited(ctx context.Context, id string) {
	if err := s.ctrl.NotifyStationMoved(ctx, id); err != nil {
		s.logger.Error("auto-save failed", zap.String("station", id), zap.Error(err))
		s.canvas.SetStatus(fmt.Sprintf("Auto-save failed: %v", err))
		return
	}
	if id == s.labelTarget {
		s.canvas.SetStatus(s.stationInfo(id))
	}
}

// refreshLabelTarget updates the info panel after positions were replaced
func (s *Session) refreshLabelTarget() {
	if s.labelTarget != "" {
		s.canvas.SetStatus(s.stationInfo(s.labelTarget))
	}
}

func (s *Session) stationInfo(id string) string {
	st, ok := s.network.Station(id)
	if !ok {
		return NoSelectionText
	}
	entry, _ := s.canvas.Entry(id)
	return stationInfo(st, entry)
}

func (s *Session) view(ctx context.Context) (VersionView, error) {
	saved, err := s.ctrl.Store().List(ctx)
	if err != nil {
		return VersionView{}, fmt.Errorf("list versions: %w", err)
	}
	return newVersionView(s.ctrl.State(), saved), nil
}

// versionsChanged flushes pending intents and publishes the new toolbar state
func (s *Session) versionsChanged(ctx context.Context) (VersionView, error) {
	s.flush()
	v, err := s.view(ctx)
	if err != nil {
		return VersionView{}, err
	}
	s.bus.Publish(Event{Type: EventVersionsChanged, Payload: v})
	return v, nil
}

func (s *Session) flush() {
	intents := s.canvas.Drain()
	if len(intents) == 0 {
		return
	}
	s.bus.Publish(Event{Type: EventIntents, Payload: intents})
}

func (s *Session) observePath(found bool) {
	if s.metrics != nil {
		s.metrics.ObservePathQuery(found)
	}
}
