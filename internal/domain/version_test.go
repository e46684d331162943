package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewSnapshotID(t *testing.T) {
	t.Run("ids sort in creation order within one millisecond", func(t *testing.T) {
		now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
		prev := NewSnapshotID(now)
		for i := 0; i < 50; i++ {
			next := NewSnapshotID(now)
			if next <= prev {
				t.Fatalf("expected %s > %s", next, prev)
			}
			prev = next
		}
	})

	t.Run("encodes creation time", func(t *testing.T) {
		now := time.Date(2026, 10, 16, 9, 30, 15, 0, time.UTC)
		id := NewSnapshotID(now)

		created, ok := id.CreatedAt()
		if !ok {
			t.Fatal("expected creation time to be decodable")
		}
		if !created.Equal(now) {
			t.Errorf("expected %v, got %v", now, created)
		}
		if id.Label() != "2026-10-16 09:30:15" {
			t.Errorf("unexpected label %q", id.Label())
		}
	})

	t.Run("imported ids are marked", func(t *testing.T) {
		id := NewImportedSnapshotID(time.Now())
		if !id.IsImported() {
			t.Error("expected imported id")
		}
		if !strings.HasSuffix(id.Label(), "(imported)") {
			t.Errorf("expected imported label, got %q", id.Label())
		}
		if _, ok := id.CreatedAt(); !ok {
			t.Error("expected imported id to carry a creation time")
		}
	})
}

func TestSnapshotIDLabel(t *testing.T) {
	if OriginalID.Label() != "Original (Unified)" {
		t.Errorf("unexpected original label %q", OriginalID.Label())
	}
	if SnapshotID("hand-made").Label() != "hand-made" {
		t.Error("expected unparseable ids to label as themselves")
	}
}

func TestSnapshotIDExportFilename(t *testing.T) {
	if got := OriginalID.ExportFilename("json"); got != "original_layout_unified.json" {
		t.Errorf("unexpected filename %q", got)
	}
	if got := SnapshotID("layout_X").ExportFilename("yaml"); got != "layout_X_unified.yaml" {
		t.Errorf("unexpected filename %q", got)
	}
}
