package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SnapshotID identifies a layout snapshot
type SnapshotID string

// OriginalID is the sentinel id of the baseline layout captured at first load
const OriginalID SnapshotID = "original_unified"

const (
	snapshotPrefix = "layout_"
	importedSuffix = "_imported"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewSnapshotID generates a time-ordered id. Ids created within the same
// millisecond still sort in creation order.
func NewSnapshotID(now time.Time) SnapshotID {
	return SnapshotID(snapshotPrefix + newULID(now).String())
}

// NewImportedSnapshotID generates an id for a layout that came from a file
func NewImportedSnapshotID(now time.Time) SnapshotID {
	return NewSnapshotID(now) + importedSuffix
}

func newULID(now time.Time) ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy)
}

// IsOriginal reports whether id is the baseline sentinel
func (id SnapshotID) IsOriginal() bool {
	return id == OriginalID
}

// IsImported reports whether the snapshot was created by an import
func (id SnapshotID) IsImported() bool {
	return strings.HasSuffix(string(id), importedSuffix)
}

// CreatedAt extracts the creation time encoded in a generated id
func (id SnapshotID) CreatedAt() (time.Time, bool) {
	raw := strings.TrimSuffix(strings.TrimPrefix(string(id), snapshotPrefix), importedSuffix)
	parsed, err := ulid.ParseStrict(raw)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()).UTC(), true
}

// Label returns a human-readable name for version pickers
func (id SnapshotID) Label() string {
	if id.IsOriginal() {
		return "Original (Unified)"
	}
	created, ok := id.CreatedAt()
	if !ok {
		return string(id)
	}
	label := created.Format("2006-01-02 15:04:05")
	if id.IsImported() {
		label += " (imported)"
	}
	return label
}

// ExportFilename is the suggested file name when a snapshot is downloaded
func (id SnapshotID) ExportFilename(ext string) string {
	if id.IsOriginal() {
		return "original_layout_unified." + ext
	}
	return string(id) + "_unified." + ext
}
