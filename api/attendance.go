package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/ilylbgg/cdi-logger/applib/httputils"
	"github.com/ilylbgg/cdi-logger/attendance"
	"github.com/ilylbgg/cdi-logger/database/events"
	"github.com/ilylbgg/cdi-logger/export"
)

type PublishResponse struct {
	Status string `json:"status"`
	Id     int    `json:"id"`
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	httputils.HandleAPIResponse(w, r, s.Store.Slots().Labels(), nil, http.StatusOK)
}

// handlePublish appends one attendance:RECORD event. A missing slot or date
// defaults to the slot and day of the current time.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	body, err := httputils.ReadBody(r)
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}

	event, err := events.ParseEvent(body, events.MapAttendanceEventType)
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, fmt.Errorf("invalid event: %w", err), http.StatusBadRequest)
		return
	}
	recorded, ok := event.(*events.AttendanceRecordedEvent)
	if !ok {
		httputils.HandleAPIResponse(w, r, nil, events.ErrUnknownEventType, http.StatusBadRequest)
		return
	}

	entry := recorded.Entry
	now := s.Now()
	if entry.Slot == "" {
		entry.Slot = attendance.RoundToSlot(now)
	}
	if entry.Date == "" {
		entry.Date = now.Format(attendance.DateLayout)
	}

	id, err := s.Store.Append(entry)
	if errors.Is(err, attendance.ErrInvalidRecord) {
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, s.storeFailed(r, err), http.StatusInternalServerError)
		return
	}
	recorded.SetId(id)

	if aerr := s.Audit.LogAttendanceRecorded(operator(r), id, entry.Slot, entry.Date); aerr != nil {
		s.Logger.Error("failed to write audit event", "error", aerr)
	}
	httputils.HandleAPIResponse(w, r, PublishResponse{Status: "success", Id: recorded.GetId()}, nil, http.StatusOK)
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := s.Store.ReadAll()
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, s.storeFailed(r, err), http.StatusInternalServerError)
		return
	}
	httputils.HandleAPIResponse(w, r, records, nil, http.StatusOK)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.Store.ReadAll()
	if err != nil {
		httputils.HandleAPIResponse(w, r, nil, s.storeFailed(r, err), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		httputils.HandleAPIResponse(w, r, nil, s.storeFailed(r, err), http.StatusInternalServerError)
		return
	}

	if aerr := s.Audit.LogExport(operator(r), len(records)); aerr != nil {
		s.Logger.Error("failed to write audit event", "error", aerr)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cdi_stats.csv"`)
	w.Write(buf.Bytes())
}
