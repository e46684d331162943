package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"transitmap/internal/repository"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// ============================================================================
// DSN
// ============================================================================

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"memory", ":memory:", ":memory:"},
		{"plain path", "./t.db", "./t.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{"existing query", "./t.db?mode=rwc", "./t.db?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, buildDSN(tt.input))
		})
	}
}

// ============================================================================
// Key/Value Operations
// ============================================================================

func TestGetMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.Set(ctx, "versions", []byte(`{"a":1}`)))

	got, err := repo.Get(ctx, "versions")
	assertNoError(t, err)
	assertEqual(t, `{"a":1}`, string(got))
}

func TestSetOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.Set(ctx, "versions", []byte("first")))
	assertNoError(t, repo.Set(ctx, "versions", []byte("second")))

	got, err := repo.Get(ctx, "versions")
	assertNoError(t, err)
	assertEqual(t, "second", string(got))
}

func TestSetEmptyValue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.Set(ctx, "empty", nil))

	got, err := repo.Get(ctx, "empty")
	assertNoError(t, err)
	assertEqual(t, 0, len(got))
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.Set(ctx, "a", []byte("1")))
	assertNoError(t, repo.Set(ctx, "b", []byte("2")))
	assertNoError(t, repo.Delete(ctx, "a"))
	assertNoError(t, repo.Delete(ctx, "never-set"))

	_, err := repo.Get(ctx, "a")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	got, err := repo.Get(ctx, "b")
	assertNoError(t, err)
	assertEqual(t, "2", string(got))
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.db")
	ctx := context.Background()

	repo, err := New(path)
	assertNoError(t, err)
	assertNoError(t, repo.Set(ctx, "versions", []byte("kept")))
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "versions")
	assertNoError(t, err)
	assertEqual(t, "kept", string(got))
}
