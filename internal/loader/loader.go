// Package loader reads the reference data a session is built from: station
// and line datasets, design coordinates and line colours. Every location is
// fetched concurrently; the first failure aborts the whole load.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"transitmap/internal/domain"
)

// maxDocumentSize caps any single reference document
const maxDocumentSize = 32 << 20

// Dataset is one station/line document of a given kind
type Dataset struct {
	Kind     domain.StationKind
	Location string
}

// Sources lists every location to load. Coordinates and Colors are optional.
type Sources struct {
	Datasets    []Dataset
	Coordinates string
	Colors      string
}

// LoadError reports the reference document that could not be loaded
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader fetches reference documents from files or over HTTP
type Loader struct {
	client *http.Client
	logger *zap.Logger
}

// New creates a loader. timeout bounds each HTTP request.
func New(timeout time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Load fetches every source and merges them into one network. Datasets are
// merged in the order given, so station names and line order follow it.
func (l *Loader) Load(ctx context.Context, src Sources) (*domain.Network, error) {
	if len(src.Datasets) == 0 {
		return nil, &LoadError{Source: "datasets", Err: fmt.Errorf("no datasets configured")}
	}

	datasets := make([][]byte, len(src.Datasets))
	var coords, colors []byte

	g, gctx := errgroup.WithContext(ctx)
	for i, ds := range src.Datasets {
		i, ds := i, ds
		g.Go(func() error {
			data, err := l.fetch(gctx, ds.Location)
			if err != nil {
				return err
			}
			datasets[i] = data
			return nil
		})
	}
	if src.Coordinates != "" {
		g.Go(func() error {
			data, err := l.fetch(gctx, src.Coordinates)
			coords = data
			return err
		})
	}
	if src.Colors != "" {
		g.Go(func() error {
			data, err := l.fetch(gctx, src.Colors)
			colors = data
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	network := domain.NewNetwork()
	for i, ds := range src.Datasets {
		doc, err := decodeDataset(datasets[i])
		if err != nil {
			return nil, &LoadError{Source: ds.Location, Err: err}
		}
		doc.mergeInto(network, ds.Kind)
		l.logger.Info("loaded dataset",
			zap.String("kind", string(ds.Kind)),
			zap.String("source", ds.Location),
			zap.Int("stations", len(doc.Stations)),
			zap.Int("lines", len(doc.Lines)),
		)
	}

	if coords != nil {
		parsed, skipped, err := decodeCoordinates(coords)
		if err != nil {
			return nil, &LoadError{Source: src.Coordinates, Err: err}
		}
		for _, id := range skipped {
			l.logger.Warn("ignoring malformed coordinate", zap.String("station", id))
		}
		for id, c := range parsed {
			network.Coordinates[id] = c
		}
	}

	if colors != nil {
		parsed, err := decodeColors(colors)
		if err != nil {
			return nil, &LoadError{Source: src.Colors, Err: err}
		}
		for line, c := range parsed {
			network.Colors[line] = c
		}
	}

	missing := 0
	for _, id := range network.StationIDs {
		if _, ok := network.Coordinates[id]; !ok {
			missing++
		}
	}
	if missing > 0 {
		l.logger.Warn("stations without design coordinates will be placed on a ring", zap.Int("count", missing))
	}

	return network, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	if !isRemote(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, &LoadError{Source: location, Err: err}
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &LoadError{Source: location, Err: err}
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: location, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{Source: location, Err: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &LoadError{Source: location, Err: err}
	}
	return data, nil
}

func isRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
