package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const sheetsTimeout = 30 * time.Second

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	vs, err := s.controller.Handle(r.Context(), services.Event{})
	if err != nil {
		s.fail(w, r, "Load dashboard failed", err, log.OpList)
		return
	}
	s.render(w, r, "index.html", vs)
}

// handleUpdate is the single entry point for every dashboard interaction.
// htmx requests get the dashboard partial back, plain form posts the page.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		updateRejected("invalid request format").write(w)
		return
	}

	ev, err := ParseEvent(ctx, r.PostForm)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Rejected dashboard update", log.FieldError, err, log.FieldOperation, log.OpParse)
		updateRejected(err.Error()).write(w)
		return
	}

	vs, err := s.controller.Handle(ctx, ev)
	if err != nil {
		s.fail(w, r, "Dashboard update failed", err, log.OpUpdate)
		return
	}

	log.NewStructuredLogger(log.FromContext(ctx)).LogTrigger(ctx,
		services.TriggerName(ev.Trigger), vs.Filter.Category, vs.Filter.StartDate, vs.Filter.EndDate, len(vs.Rows))

	name := "index.html"
	if isHTMX(r) {
		name = "dashboard"
	}
	s.render(w, r, name, vs)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListAll(r.Context())
	if err != nil {
		s.fail(w, r, "CSV export failed", err, log.OpExport)
		return
	}

	// Buffer so a write error can still become a 500
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, txs); err != nil {
		s.fail(w, r, "CSV export failed", err, log.OpExport)
		return
	}

	csvAttachment(export.Filename, buf.Bytes()).write(w)
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		errorFragment(http.StatusNotFound, "Google Sheets export is not configured").write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sheetsTimeout)
	defer cancel()

	txs, err := s.store.ListAll(ctx)
	if err != nil {
		s.fail(w, r, "Sheets export failed", err, log.OpExport)
		return
	}
	rows := append([][]string{export.Header}, export.Records(txs)...)
	if err := s.sheets.ReplaceRecords(ctx, rows); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Sheets export failed", err, log.ComponentSheets, log.OpExport, nil)
		errorFragment(http.StatusBadGateway, "Export to Google Sheets failed").
			notify(NotificationError, "Export to Google Sheets failed").
			write(w)
		return
	}

	sheetsExported(len(txs)).write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if _, err := s.store.ListAll(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if s.sheets != nil {
		checks["sheets"] = "configured"
	} else {
		checks["sheets"] = "not_configured"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"rejected":       s.rateLimiter.Hits(),
	}
	checks["requests_total"] = s.tracer.TotalRequests()

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, vs services.ViewState) {
	data, err := s.newPageData(vs)
	if err != nil {
		s.fail(w, r, "Encode table snapshot failed", err, log.OpRender)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.fail(w, r, "Template execution failed", err, log.OpRender)
		return
	}
	dashboardResponse(buf.Bytes()).write(w)
}

// fail logs err and answers 500 with an error fragment.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	ctx := r.Context()
	log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, msg, err, log.ComponentHTTP, op, nil)
	errorFragment(http.StatusInternalServerError, msg).write(w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
