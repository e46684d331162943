package service

import (
	"fmt"
	"strings"

	"transitmap/internal/domain"
	"transitmap/internal/version"
)

// VersionOption is one entry of the version picker
type VersionOption struct {
	ID    domain.SnapshotID `json:"id"`
	Label string            `json:"label"`
}

// VersionView is what the version toolbar renders: the active version, the
// picker entries and which buttons are visible.
type VersionView struct {
	Active            domain.SnapshotID `json:"active"`
	ActiveLabel       string            `json:"active_label"`
	HasUnsavedChanges bool              `json:"has_unsaved_changes"`
	Versions          []VersionOption   `json:"versions"`
	ShowSave          bool              `json:"show_save"`
	ShowNewVersion    bool              `json:"show_new_version"`
	ShowReset         bool              `json:"show_reset"`
}

// newVersionView builds the toolbar state. saved is newest first.
func newVersionView(state version.State, saved []domain.SnapshotID) VersionView {
	onOriginal := state.ActiveVersionID.IsOriginal()

	options := make([]VersionOption, 0, len(saved)+1)
	options = append(options, VersionOption{ID: domain.OriginalID, Label: domain.OriginalID.Label()})
	for _, id := range saved {
		options = append(options, VersionOption{ID: id, Label: id.Label()})
	}

	return VersionView{
		Active:            state.ActiveVersionID,
		ActiveLabel:       state.ActiveVersionID.Label(),
		HasUnsavedChanges: state.HasUnsavedChanges,
		Versions:          options,
		ShowSave:          onOriginal && state.HasUnsavedChanges,
		ShowNewVersion:    !onOriginal || len(saved) > 0 || state.HasUnsavedChanges,
		ShowReset:         !onOriginal || state.HasUnsavedChanges,
	}
}

// NoSelectionText is the info panel text when nothing is selected
const NoSelectionText = "No station selected."

// stationInfo renders the info panel text for a station
func stationInfo(st *domain.Station, entry domain.LayoutEntry) string {
	var kinds []string
	for _, k := range st.Kinds {
		kinds = append(kinds, kindTitle(k))
	}
	kindText := "N/A"
	if len(kinds) > 0 {
		kindText = strings.Join(kinds, "/")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\n", st.ID)
	fmt.Fprintf(&b, "Name: %s\n", st.DisplayName())
	fmt.Fprintf(&b, "Type: %s\n", kindText)
	fmt.Fprintf(&b, "Lines: %s\n", strings.Join(st.Lines, ", "))
	fmt.Fprintf(&b, "Notes: %s\n", st.Notes)
	fmt.Fprintf(&b, "Pos: x: %.2f, y: %.2f\n", entry.X, entry.Y)
	fmt.Fprintf(&b, "Label: %s", entry.LabelPos.OrDefault())
	return b.String()
}

func kindTitle(k domain.StationKind) string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
