package domain

import (
	"errors"
	"fmt"
)

// ErrNoPath is returned when two stations share no line or branch
var ErrNoPath = errors.New("no direct line path")

// MalformedImportError rejects an imported layout file
type MalformedImportError struct {
	Reason string
}

func (e *MalformedImportError) Error() string {
	return fmt.Sprintf("malformed layout import: %s", e.Reason)
}

// SnapshotNotFoundError reports a version id absent from the store
type SnapshotNotFoundError struct {
	ID SnapshotID
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("layout version %s not found", e.ID)
}

// IsMalformedImport reports whether err is (or wraps) a MalformedImportError
func IsMalformedImport(err error) bool {
	var target *MalformedImportError
	return errors.As(err, &target)
}
