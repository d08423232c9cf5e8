package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"strconv"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/forest"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/service"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/source"
)

const maxBodyBytes = 32 << 20

type Handler struct {
	svc service.ForestService
}

func New(svc service.ForestService) *Handler {
	return &Handler{svc: svc}
}

// IngestComments accepts a JSON array of comment records or one record per line.
func (h *Handler) IngestComments(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	rootID := r.PathValue("root")

	src, err := source.Detect(stdhttp.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "unreadable body"})
		return
	}

	res, err := h.svc.Ingest(r.Context(), rootID, src)
	if err != nil {
		switch {
		case errors.Is(err, forest.ErrOrphanComment):
			writeJSON(w, stdhttp.StatusUnprocessableEntity, map[string]any{
				"error":  "comments without parent",
				"result": res,
			})
		case errors.Is(err, service.ErrInvalidInput):
			writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": err.Error()})
		default:
			var tooLarge *stdhttp.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, stdhttp.StatusRequestEntityTooLarge, map[string]any{"error": "body too large"})
				return
			}
			var syntax *json.SyntaxError
			if errors.As(err, &syntax) {
				writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "bad json"})
				return
			}
			writeJSON(w, stdhttp.StatusInternalServerError, map[string]any{"error": "internal error"})
		}
		return
	}

	writeJSON(w, stdhttp.StatusCreated, res)
}

// GetComments writes the forest as a JSON array. style=raw lists every comment
// flat in arrival order; limit keeps the first N entries.
func (h *Handler) GetComments(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	q := r.URL.Query()

	style, err := forest.ParseStyle(q.Get("style"))
	if err != nil {
		writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "invalid style"})
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "invalid limit"})
			return
		}
	}

	exp, err := h.svc.Export(r.Context(), r.PathValue("root"), style, limit)
	if err != nil {
		writeError(w, err, "forest not found")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Comment-Style", string(exp.Style))
	w.Header().Set("X-Comment-Count", strconv.Itoa(exp.Count))
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write(exp.Comments)
}

func (h *Handler) GetPath(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "invalid id"})
		return
	}

	items, err := h.svc.Path(r.Context(), r.PathValue("root"), id)
	if err != nil {
		writeError(w, err, "not found")
		return
	}

	writeJSON(w, stdhttp.StatusOK, map[string]any{"items": items})
}

func (h *Handler) SearchComments(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "invalid page"})
			return
		}
		page = parsed
	}

	limit := 20
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	res, err := h.svc.Search(r.Context(), r.PathValue("root"), q.Get("q"), page, limit)
	if err != nil {
		writeError(w, err, "forest not found")
		return
	}

	writeJSON(w, stdhttp.StatusOK, res)
}

func (h *Handler) DeleteForest(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("root")); err != nil {
		writeError(w, err, "forest not found")
		return
	}

	writeJSON(w, stdhttp.StatusOK, map[string]any{"deleted": true})
}

func writeError(w stdhttp.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "invalid input"})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, stdhttp.StatusNotFound, map[string]any{"error": notFound})
	default:
		writeJSON(w, stdhttp.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func writeJSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
