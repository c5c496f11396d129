// Package handlers provides HTTP handlers for projected dividends.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/yieldfolio/internal/modules/dividends"
	"github.com/aristath/yieldfolio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// EntryLister reads stored dividend entries
type EntryLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]dividends.Entry, error)
	ListByYear(ctx context.Context, ownerID string, year int) ([]dividends.Entry, error)
}

// ScheduleService regenerates and clears an owner's projected entries
type ScheduleService interface {
	RegenerateSchedules(ctx context.Context, ownerID string) (dividends.Summary, error)
	DeleteFutureDividends(ctx context.Context, ownerID string) (int64, error)
}

// Handler handles dividend HTTP requests
type Handler struct {
	entries  EntryLister
	schedule ScheduleService
	now      func() time.Time
	log      zerolog.Logger
}

// NewHandler creates a new dividend handler
func NewHandler(entries EntryLister, schedule ScheduleService, log zerolog.Logger) *Handler {
	return &Handler{
		entries:  entries,
		schedule: schedule,
		now:      time.Now,
		log:      log.With().Str("handler", "dividends").Logger(),
	}
}

// RegisterRoutes registers all dividend routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dividends", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/calendar", h.HandleCalendar)
		r.Post("/generate", h.HandleGenerate)
		r.Delete("/future", h.HandleDeleteFuture)
	})
}

// yearParam returns the year query parameter. ok is false when it is present but invalid.
func yearParam(r *http.Request) (year int, present, ok bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, false, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		return 0, true, false
	}
	return year, true, true
}

// HandleList returns the owner's entries, optionally limited to ?year=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	year, present, ok := yearParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid year")
		return
	}

	owner := utils.OwnerID(r)
	var (
		entries []dividends.Entry
		err     error
	)
	if present {
		entries, err = h.entries.ListByYear(r.Context(), owner, year)
	} else {
		entries, err = h.entries.ListByOwner(r.Context(), owner)
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"dividends": entries,
		"count":     len(entries),
	})
}

// HandleCalendar returns the owner's entries for ?year= bucketed by month (default current year)
func (h *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	year, present, ok := yearParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	if !present {
		year = h.now().UTC().Year()
	}

	entries, err := h.entries.ListByYear(r.Context(), utils.OwnerID(r), year)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, dividends.BuildCalendar(entries, year))
}

// HandleGenerate creates missing entries for every holding of the owner
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	summary, err := h.schedule.RegenerateSchedules(r.Context(), utils.OwnerID(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// HandleDeleteFuture removes the owner's entries from the current year onwards
func (h *Handler) HandleDeleteFuture(w http.ResponseWriter, r *http.Request) {
	n, err := h.schedule.DeleteFutureDividends(r.Context(), utils.OwnerID(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
