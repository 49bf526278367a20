package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// errBadRequest marks handler errors caused by the request itself.
var errBadRequest = errors.New("bad request")

type reportHandler func(r *domain.Report, req *http.Request) (any, error)

// withReport resolves the current snapshot and serves 503 until one exists.
func (s *Server) withReport(h reportHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		report := s.reports.Snapshot()
		if report == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "no sheet snapshot loaded yet",
			})
			return
		}

		body, err := h(report, req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, errBadRequest) {
				status = http.StatusBadRequest
			} else {
				s.logger.Error("api handler failed", "path", req.URL.Path, "error", err)
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// handleRecords lists every record, optionally filtered by ?category=.
func handleRecords(r *domain.Report, req *http.Request) (any, error) {
	raw := req.URL.Query().Get("category")
	if raw == "" {
		return r.Records, nil
	}

	cat := domain.Category(raw)
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", errBadRequest, raw)
	}

	out := make([]domain.SiteRecord, 0, r.Summary.Count(cat))
	for _, rec := range r.Records {
		if rec.Category == cat {
			out = append(out, rec)
		}
	}
	return out, nil
}
