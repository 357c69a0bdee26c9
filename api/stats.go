package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ilylbgg/cdi-logger/applib/httputils"
	"github.com/ilylbgg/cdi-logger/attendance"
	"github.com/ilylbgg/cdi-logger/audit"
	"github.com/ilylbgg/cdi-logger/stats"
)

const defaultAuditLimit = 50

type TotalResponse struct {
	Window stats.WindowKind `json:"window"`
	Range  stats.Range      `json:"range"`
	Total  int              `json:"total"`
}

// windowParams reads ?window= and ?date=. The window defaults to def.
func (s *Server) windowParams(r *http.Request, def stats.WindowKind) (stats.WindowKind, time.Time, error) {
	kind := def
	if v := r.URL.Query().Get("window"); v != "" {
		parsed, err := stats.ParseWindowKind(v)
		if err != nil {
			return "", time.Time{}, err
		}
		kind = parsed
	}
	ref, err := stats.ParseDate(r.URL.Query().Get("date"), s.Now)
	if err != nil {
		return "", time.Time{}, err
	}
	return kind, ref, nil
}

// records reads the whole log, writing the error response itself on failure.
func (s *Server) records(w http.ResponseWriter, r *http.Request) ([]attendance.Record, bool) {
	records, err := s.Store.ReadAll()
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, s.storeFailed(r, err), http.StatusInternalServerError)
		return nil, false
	}
	return records, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	kind, ref, err := s.windowParams(r, stats.Week)
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	httputils.HandleAPIResponse(w, r, s.Engine.Summarize(records, ref, kind), nil, http.StatusOK)
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	kind, ref, err := s.windowParams(r, stats.Day)
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	httputils.HandleAPIResponse(w, r, TotalResponse{
		Window: kind,
		Range:  stats.WindowFor(ref, kind),
		Total:  s.Engine.TotalForWindow(records, ref, kind),
	}, nil, http.StatusOK)
}

// handleAverage averages over the whole log unless ?window= is given.
func (s *Server) handleAverage(w http.ResponseWriter, r *http.Request) {
	pred := stats.All
	if r.URL.Query().Get("window") != "" {
		kind, ref, err := s.windowParams(r, stats.Day)
		if err != nil {
			httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
			return
		}
		pred = stats.InWindow(stats.WindowFor(ref, kind))
	}
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	httputils.HandleAPIResponse(w, r, s.Engine.AveragePerSlot(records, pred), nil, http.StatusOK)
}

func (s *Server) handleAverageWeek(w http.ResponseWriter, r *http.Request) {
	ref, err := stats.ParseDate(r.URL.Query().Get("date"), s.Now)
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	httputils.HandleAPIResponse(w, r, s.Engine.AveragePerSlotWeek(records, ref), nil, http.StatusOK)
}

func (s *Server) handlePeak(w http.ResponseWriter, r *http.Request) {
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	httputils.HandleAPIResponse(w, r, s.Engine.PeakSlots(records), nil, http.StatusOK)
}

func (s *Server) handleGrades(w http.ResponseWriter, r *http.Request) {
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	httputils.HandleAPIResponse(w, r, s.Engine.DistributionByGrade(records), nil, http.StatusOK)
}

// handleAudit lists recent audit events, optionally filtered by ?type=.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputils.HandleAPIResponse(w, r, nil, errInvalidLimit, http.StatusBadRequest)
			return
		}
		limit = n
	}

	var (
		auditEvents []audit.AuditEvent
		err         error
	)
	if eventType := r.URL.Query().Get("type"); eventType != "" {
		auditEvents, err = s.Audit.GetEventsByType(audit.EventType(eventType), limit)
	} else {
		auditEvents, err = s.Audit.GetRecentEvents(limit)
	}
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, s.storeFailed(r, err), http.StatusInternalServerError)
		return
	}
	httputils.HandleAPIResponse(w, r, auditEvents, nil, http.StatusOK)
}
