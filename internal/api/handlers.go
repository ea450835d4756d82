package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/eventstore"
	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/athena-os-2026/sanctions-radar/internal/render"
	"github.com/athena-os-2026/sanctions-radar/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Archive is the read side of the brief archive.
type Archive interface {
	GetRecentBriefs(ctx context.Context, limit int) ([]models.BriefRecord, error)
	GetBriefsSince(ctx context.Context, since time.Time, limit int) ([]models.BriefRecord, error)
	GetBriefByID(ctx context.Context, id string) (*models.BriefRecord, error)
	CountBriefs(ctx context.Context) (int64, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
}

// Files locates the artifacts written by the collector and synthesizer.
type Files struct {
	Events string
	Record string
	Report string
}

// Handlers holds the API handlers.
type Handlers struct {
	files   Files
	catalog models.Catalog
	archive Archive
}

// NewHandlers creates new API handlers. archive may be nil.
func NewHandlers(files Files, catalog models.Catalog, archive Archive) *Handlers {
	return &Handlers{files: files, catalog: catalog, archive: archive}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func getLimit(r *http.Request, defaultLimit int) int {
	limit := defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return limit
}

// HealthCheck reports which artifacts are present.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"events":  fileExists(h.files.Events),
		"brief":   fileExists(h.files.Record),
		"report":  fileExists(h.files.Report),
		"archive": h.archive != nil,
	})
}

// GetBrief returns the latest brief record.
func (h *Handlers) GetBrief(w http.ResponseWriter, r *http.Request) {
	rec, err := render.LoadRecord(h.files.Record)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondError(w, http.StatusNotFound, "No brief generated yet")
			return
		}
		log.Warn().Err(err).Str("path", h.files.Record).Msg("Failed to read brief record")
		respondError(w, http.StatusInternalServerError, "Failed to read brief")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// GetSignals returns the current event set, optionally filtered by category.
func (h *Handlers) GetSignals(w http.ResponseWriter, r *http.Request) {
	es, err := eventstore.Load(h.files.Events)
	if err != nil {
		log.Warn().Err(err).Str("path", h.files.Events).Msg("Failed to read event set, serving empty")
	}

	category := r.URL.Query().Get("category")
	limit := getLimit(r, 50)

	out := make(models.EventSet, 0, limit)
	total := 0
	for _, ts := range es {
		if category != "" && ts.Category != category {
			continue
		}
		total++
		if len(out) < limit {
			out = append(out, ts)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"signals": out,
		"count":   len(out),
		"total":   total,
	})
}

// GetCategories returns the archived category catalog when an archive is
// configured, otherwise the built-in one.
func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, source := h.catalog.All(), "catalog"
	if h.archive != nil {
		archived, err := h.archive.GetCategories(r.Context())
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Failed to fetch archived categories, serving built-in catalog")
		case len(archived) > 0:
			categories, source = archived, "archive"
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
		"source":     source,
	})
}

// GetBriefs returns archived briefs, newest first. ?since= restricts the
// list to briefs generated at or after that time.
func (h *Handlers) GetBriefs(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "Archive not configured")
		return
	}

	ctx := r.Context()
	limit := getLimit(r, 20)

	var (
		briefs []models.BriefRecord
		err    error
	)
	if s := r.URL.Query().Get("since"); s != "" {
		since, perr := models.ParseTimeFlexible(s)
		if perr != nil {
			respondError(w, http.StatusBadRequest, "Invalid since, expected RFC3339 or YYYY-MM-DD")
			return
		}
		briefs, err = h.archive.GetBriefsSince(ctx, since, limit)
	} else {
		briefs, err = h.archive.GetRecentBriefs(ctx, limit)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch archived briefs")
		respondError(w, http.StatusInternalServerError, "Failed to fetch briefs")
		return
	}

	resp := map[string]interface{}{
		"briefs": briefs,
		"count":  len(briefs),
	}
	if total, err := h.archive.CountBriefs(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to count archived briefs")
	} else {
		resp["total"] = total
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetBriefByID returns one archived brief.
func (h *Handlers) GetBriefByID(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "Archive not configured")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := h.archive.GetBriefByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Brief not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to fetch archived brief")
		respondError(w, http.StatusInternalServerError, "Failed to fetch brief")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// GetReport serves the rendered HTML report.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	if !fileExists(h.files.Report) {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, h.files.Report)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
