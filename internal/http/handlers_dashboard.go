package http

import (
	"bytes"
	"mime"
	"net/http"
	"sync/atomic"
	"time"

	"ledger/internal/core"
	"ledger/internal/export"
	"ledger/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	all := s.ledger.Snapshot()
	rep := s.report(all, monthParam(r.URL.Query()))

	data := indexView{
		dashboardView: newDashboardView(all, rep, s.ledger.LoadWarning()),
		Types:         core.Types(),
		Today:         time.Now().Format(core.DateLayout),
	}
	s.render(w, r, "index.html", data)
}

// handleDashboardPartial renders the dashboard section swapped in by HTMX
// when the month selector changes or a transaction is added.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	all := s.ledger.Snapshot()
	rep := s.report(all, monthParam(r.URL.Query()))
	s.render(w, r, "dashboard", newDashboardView(all, rep, s.ledger.LoadWarning()))
}

type summaryResponse struct {
	Month        string               `json:"month"`
	Months       []string             `json:"months"`
	Transactions int                  `json:"transactions"`
	Summary      core.Summary         `json:"summary"`
	Breakdown    []core.CategoryTotal `json:"breakdown"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	all := s.ledger.Snapshot()
	rep := s.report(all, monthParam(r.URL.Query()))
	writeJSON(w, r, http.StatusOK, summaryResponse{
		Month:        rep.Label,
		Months:       core.ListMonths(all),
		Transactions: len(rep.Transactions),
		Summary:      rep.Summary,
		Breakdown:    rep.Breakdown,
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	rep := s.report(s.ledger.Snapshot(), monthParam(r.URL.Query()))
	writeJSON(w, r, http.StatusOK, newChartsPayload(rep))
}

// handleExportCSV downloads the selected month as CSV.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	label := monthParam(r.URL.Query())
	rep := s.report(s.ledger.Snapshot(), label)

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rep.Transactions); err != nil {
		log.LogError(r.Context(), "CSV export failed", err, log.ComponentExport, log.OpExport, log.NewFields().WithMonth(label))
		InternalServerError("Error exporting transactions").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName(label)}))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	atomic.AddInt64(&s.appMetrics.exports, 1)
	log.FromContext(r.Context()).WithComponent(log.ComponentExport).InfoContext(r.Context(), "CSV exported",
		log.FieldMonth, label,
		"rows", len(rep.Transactions))
}

// render executes a template into a buffer so a failure can still produce a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender, log.LogFields{"template": name})
		InternalServerError("Error rendering page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
