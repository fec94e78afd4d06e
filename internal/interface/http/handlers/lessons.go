package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alem-hub/lesson-catalog/internal/application/command"
	"github.com/alem-hub/lesson-catalog/internal/application/query"
	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
	"github.com/alem-hub/lesson-catalog/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// LessonHandler serves the read API over the catalog.
type LessonHandler struct {
	manifest *lesson.Manifest
	list     *query.ListLessonsHandler
	get      *query.GetLessonHandler
}

// NewLessonHandler creates a lesson handler.
func NewLessonHandler(manifest *lesson.Manifest) *LessonHandler {
	return &LessonHandler{
		manifest: manifest,
		list:     query.NewListLessonsHandler(manifest),
		get:      query.NewGetLessonHandler(manifest),
	}
}

// ETag returns the strong entity tag for the catalog.
func (h *LessonHandler) ETag() string {
	return `"` + h.manifest.Fingerprint() + `"`
}

// List handles GET /api/v1/lessons?offset=&limit=.
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	etag := h.ETag()
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	offset, err := queryInt(r, "offset")
	if err != nil {
		WriteErrorWithDetails(w, r, http.StatusBadRequest, "invalid_parameter", "offset must be an integer", err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteErrorWithDetails(w, r, http.StatusBadRequest, "invalid_parameter", "limit must be an integer", err.Error())
		return
	}

	res, err := h.list.Handle(r.Context(), query.ListLessonsQuery{Offset: offset, Limit: limit})
	if err != nil {
		WriteErrorWithDetails(w, r, http.StatusBadRequest, "invalid_parameter", "Invalid pagination", err.Error())
		return
	}

	WriteJSON(w, r, http.StatusOK, res, &ResponseMeta{
		CatalogVersion: res.Version,
		TotalCount:     res.Count,
		Offset:         res.Offset,
		Limit:          res.Limit,
		HasMore:        res.Offset+len(res.Lessons) < res.Count,
	})
}

// Get handles GET /api/v1/lessons/{file}.
func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")

	res, err := h.get.Handle(r.Context(), query.GetLessonQuery{File: file})
	switch {
	case err == nil:
	case shared.IsNotFound(err):
		WriteError(w, r, http.StatusNotFound, "lesson_not_found", "No lesson with file "+strconv.Quote(file))
		return
	default:
		WriteErrorWithDetails(w, r, http.StatusBadRequest, "invalid_parameter", "Invalid lesson file", err.Error())
		return
	}

	w.Header().Set("ETag", h.ETag())
	WriteJSON(w, r, http.StatusOK, res, &ResponseMeta{CatalogVersion: h.manifest.Fingerprint()})
}

// Count handles GET /api/v1/lessons/count.
func (h *LessonHandler) Count(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, r, http.StatusOK, map[string]int{"count": h.manifest.Count()},
		&ResponseMeta{CatalogVersion: h.manifest.Fingerprint()})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// AdminHandler serves administrative endpoints.
type AdminHandler struct {
	publish *command.PublishCatalogHandler
	log     *logger.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(publish *command.PublishCatalogHandler, log *logger.Logger) *AdminHandler {
	return &AdminHandler{publish: publish, log: log}
}

// Publish handles POST /api/v1/admin/publish?force=true.
// Responds 502 with the per-sink outcomes when any sink fails.
func (h *AdminHandler) Publish(w http.ResponseWriter, r *http.Request) {
	force := queryBool(r, "force")

	res, err := h.publish.Handle(r.Context(), command.PublishCatalogCommand{
		Force:         force,
		CorrelationID: GetRequestID(r.Context()),
	})
	if err != nil {
		logger.FromContext(r.Context()).Error("publish via admin API failed", logger.Err(err))
		if res == nil {
			WriteErrorWithDetails(w, r, http.StatusInternalServerError, "publish_failed", "Catalog publish failed", err.Error())
			return
		}
		WriteJSON(w, r, http.StatusBadGateway, res, &ResponseMeta{CatalogVersion: res.Version})
		return
	}

	h.log.Info("catalog published via admin API",
		logger.Version(res.Version),
		logger.Bool("force", force),
		logger.RequestID(GetRequestID(r.Context())),
	)
	WriteJSON(w, r, http.StatusOK, res, &ResponseMeta{CatalogVersion: res.Version})
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// etagMatches implements the If-None-Match comparison for a single strong tag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// queryInt parses an optional integer query parameter. A malformed value
// is an error of kind shared.ErrInvalidFormat.
func queryInt(r *http.Request, key string) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, shared.WrapError("http", "ParseQuery", shared.ErrInvalidFormat, key+" must be an integer", err)
	}
	return n, nil
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
