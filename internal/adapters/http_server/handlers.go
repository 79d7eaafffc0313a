package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"rentals/internal/app"
	"rentals/internal/domain"
)

// Loader runs one whole-file load.
type Loader interface {
	LoadFromSource(ctx context.Context, path string) (app.LoadReport, error)
}

type Handlers struct {
	Q *app.QueryService
	// Loads is optional; without it POST /v1/loads is not mounted.
	Loads Loader
	// SourceDir confines load sources to relative paths under it.
	SourceDir   string
	LoadLimiter *rate.Limiter
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type loadRequest struct {
	Source string `json:"source"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/properties/{id}", h.getProperty)
	s.mux.Get("/v1/properties/{id}/reviews", h.listReviews)
	s.mux.Get("/v1/owners/{userID}/properties", h.listOwnerProperties)

	if h.Loads != nil {
		lim := h.LoadLimiter
		if lim == nil {
			lim = rate.NewLimiter(rate.Inf, 0)
		}
		s.mux.With(RateLimit(lim)).Post("/v1/loads", h.startLoad)
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeQueryError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Str("what", what).Msg("query failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached writes v as JSON with an ETag, or 304 when the client has it.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("route", routeOf(r)).Msg("failed to write body")
	}
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	pv, err := h.Q.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeQueryError(w, err, "property")
		return
	}
	writeCached(w, r, pv)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ListReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeQueryError(w, err, "property")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) listOwnerProperties(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ListOwnerProperties(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeQueryError(w, err, "owner")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) resolveSource(src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	if h.SourceDir == "" {
		return src, true
	}
	if !filepath.IsLocal(src) {
		return "", false
	}
	return filepath.Join(h.SourceDir, src), true
}

func (h *Handlers) startLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"source\": \"<path>\"}")
		return
	}
	path, ok := h.resolveSource(req.Source)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid source", "source must be a relative path inside the load directory")
		return
	}

	rep, err := h.Loads.LoadFromSource(r.Context(), path)
	if err != nil {
		var pe *app.PhaseError
		switch {
		case errors.Is(err, domain.ErrLoadInProgress):
			writeProblem(w, http.StatusConflict, "Conflict", err.Error())
		case errors.As(err, &pe) && pe.Phase == app.PhaseRead:
			writeProblem(w, http.StatusUnprocessableEntity, "Unreadable source", err.Error())
		default:
			writeProblem(w, http.StatusInternalServerError, "Load failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		log.Error().Err(err).Msg("failed to write load report")
	}
}
