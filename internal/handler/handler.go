package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"transitmap/internal/codec"
	"transitmap/internal/domain"
	"transitmap/internal/service"
)

// maxImportSize caps uploaded layout files
const maxImportSize = 10 << 20

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NetworkResponse is the static map: stations, edges, lines and styling
type NetworkResponse struct {
	Stations []domain.GraphNode                     `json:"stations"`
	Edges    []domain.Edge                          `json:"edges"`
	Lines    []*domain.Line                         `json:"lines"`
	Colors   map[string]string                      `json:"colors"`
	Anchors  map[domain.AnchorKey]domain.AnchorStyle `json:"anchors"`
}

// MapHandler handles the map API
type MapHandler struct {
	session *service.Session
	logger  *zap.Logger
}

// NewMapHandler creates a new map handler
func NewMapHandler(session *service.Session, logger *zap.Logger) *MapHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapHandler{session: session, logger: logger}
}

// GetNetwork returns the stations, edges and line styling
func (h *MapHandler) GetNetwork(w http.ResponseWriter, r *http.Request) {
	graph := h.session.Graph()
	network := h.session.Network()

	anchors := make(map[domain.AnchorKey]domain.AnchorStyle)
	for _, k := range domain.AnchorKeys() {
		anchors[k] = k.Style()
	}

	h.writeJSON(w, NetworkResponse{
		Stations: graph.Nodes,
		Edges:    graph.Edges,
		Lines:    resolvedLines(network),
		Colors:   resolvedColors(network),
		Anchors:  anchors,
	}, http.StatusOK)
}

// GetLayout returns the live position and label anchor of every station
func (h *MapHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.session.Layout(), http.StatusOK)
}

// ListVersions returns the version toolbar state
func (h *MapHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	view, err := h.session.Versions(r.Context())
	if err != nil {
		h.logger.Error("failed to list versions", zap.Error(err))
		h.writeError(w, "Failed to list versions", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, view, http.StatusOK)
}

// SaveVersion stores the live layout as a new version
func (h *MapHandler) SaveVersion(w http.ResponseWriter, r *http.Request) {
	view, err := h.session.SaveAsNewVersion(r.Context())
	if err != nil {
		h.logger.Error("failed to save version", zap.Error(err))
		h.writeError(w, "Failed to save version", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, view, http.StatusCreated)
}

// LoadVersion activates the version named in the path
func (h *MapHandler) LoadVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, "Invalid version ID", "Version ID is required", http.StatusBadRequest)
		return
	}

	view, err := h.session.LoadVersion(r.Context(), domain.SnapshotID(id))
	if err != nil {
		h.logger.Error("failed to load version", zap.String("version", id), zap.Error(err))
		h.writeError(w, "Failed to load version", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, view, http.StatusOK)
}

// ResetLayout reloads ORIGINAL
func (h *MapHandler) ResetLayout(w http.ResponseWriter, r *http.Request) {
	view, err := h.session.ResetToOriginal(r.Context())
	if err != nil {
		h.writeError(w, "Failed to reset layout", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, view, http.StatusOK)
}

// DestroyVersions deletes every saved version. The caller must pass
// ?confirm=true.
func (h *MapHandler) DestroyVersions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		h.writeError(w, "Confirmation required",
			"Deleting all versions cannot be undone; repeat with ?confirm=true", http.StatusBadRequest)
		return
	}

	view, err := h.session.DestroyAllVersions(r.Context())
	if err != nil {
		h.logger.Error("failed to destroy versions", zap.Error(err))
		h.writeError(w, "Failed to destroy versions", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, view, http.StatusOK)
}

// ExportVersion downloads the active layout as JSON (default) or YAML
func (h *MapHandler) ExportVersion(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	id, snap, err := h.session.ExportActiveVersion(r.Context())
	if err != nil {
		h.logger.Error("failed to export layout", zap.Error(err))
		h.writeError(w, "Failed to export layout", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", c.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id.ExportFilename(c.Format())))
	if err := c.Export(snap, w); err != nil {
		h.logger.Error("failed to write export", zap.Error(err))
		// Can't write error response as we already set headers
	}
}

// ImportVersion stores an uploaded layout as a new version. The body is the
// layout document itself, or a multipart form with a "file" field.
func (h *MapHandler) ImportVersion(w http.ResponseWriter, r *http.Request) {
	payload, err := readUpload(w, r)
	if err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.session.ImportAsNewVersion(r.Context(), payload)
	if err != nil {
		if domain.IsMalformedImport(err) {
			h.writeError(w, "Invalid layout file", err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to import layout", zap.Error(err))
		h.writeError(w, "Failed to import layout", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, view, http.StatusCreated)
}

// DragStation records the drop position of a dragged station
func (h *MapHandler) DragStation(w http.ResponseWriter, r *http.Request) {
	var req DragRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.session.StationDragReleased(r.Context(), chi.URLParam(r, "id"), *req.X, *req.Y)
	if err != nil {
		h.writeSessionError(w, "Failed to move station", err)
		return
	}
	h.writeJSON(w, view, http.StatusOK)
}

// TapStation selects a station; shift extends the path selection
func (h *MapHandler) TapStation(w http.ResponseWriter, r *http.Request) {
	var req TapRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	res, err := h.session.StationTapped(chi.URLParam(r, "id"), req.Shift)
	if err != nil {
		h.writeSessionError(w, "Failed to select station", err)
		return
	}
	h.writeJSON(w, res, http.StatusOK)
}

// GetSelection returns the path selection and label-editing target
func (h *MapHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.session.Selection(), http.StatusOK)
}

// TapBackground clears every selection
func (h *MapHandler) TapBackground(w http.ResponseWriter, r *http.Request) {
	h.session.BackgroundTapped()
	w.WriteHeader(http.StatusNoContent)
}

// LabelKey moves the selected station's label
func (h *MapHandler) LabelKey(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	if !h.decode(w, r, &req) {
		return
	}

	applied, err := h.session.LabelKeypress(r.Context(), req.Key)
	if err != nil {
		h.writeSessionError(w, "Failed to move label", err)
		return
	}
	h.writeJSON(w, LabelResponse{Applied: applied, Station: h.session.LabelTarget()}, http.StatusOK)
}

// resolvedLines copies the lines with each colour resolved through the
// DEFAULT entry and the grey fallback
func resolvedLines(n *domain.Network) []*domain.Line {
	lines := make([]*domain.Line, 0, len(n.Lines))
	for _, l := range n.Lines {
		line := *l
		line.Color = n.LineColor(l.ID)
		lines = append(lines, &line)
	}
	return lines
}

// resolvedColors returns the colour table with an entry for every line
func resolvedColors(n *domain.Network) map[string]string {
	colors := make(map[string]string, len(n.Colors)+len(n.Lines))
	for k, v := range n.Colors {
		colors[k] = v
	}
	for _, l := range n.Lines {
		colors[l.ID] = n.LineColor(l.ID)
	}
	return colors
}

func (h *MapHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validateRequest(dst); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *MapHandler) writeSessionError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, service.ErrUnknownStation) {
		h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
		return
	}
	h.logger.Error(msg, zap.Error(err))
	h.writeError(w, msg, err.Error(), http.StatusInternalServerError)
}

func (h *MapHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON", zap.Error(err))
	}
}

func (h *MapHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Error("failed to encode error response", zap.Error(err))
	}
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("multipart upload needs a \"file\" field: %w", err)
	}
	defer file.Close()
	return io.ReadAll(file)
}
