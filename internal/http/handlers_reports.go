package http

import (
	"errors"
	"net/http"
	"strconv"

	"grledger/internal/insight"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.App.Dashboard())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q, err := ParseReportQuery(r.URL.Query(), s.deps.Now().In(s.deps.Location))
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.deps.App.Report(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.App.Years())
}

var errInsightUnavailable = errors.New("insight is not configured")

func (s *Server) handleLatestInsight(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auditor == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorBody{Error: errInsightUnavailable.Error()})
		return
	}
	latest := s.deps.Auditor.Latest()
	// first look at the dashboard: analyse whatever is there
	if latest.At.IsZero() && !latest.Running {
		if err := s.deps.Auditor.Start(s.deps.App.Transactions()); err == nil {
			latest.Running = true
		}
	}
	writeJSON(w, http.StatusOK, latest)
}

// handleRunInsight starts an analysis in the background and answers 202.
// With ?wait=true it runs inline and returns the finished text.
func (s *Server) handleRunInsight(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auditor == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorBody{Error: errInsightUnavailable.Error()})
		return
	}
	txs := s.deps.App.Transactions()

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		res, err := s.deps.Auditor.Run(r.Context(), txs)
		if errors.Is(err, insight.ErrBusy) {
			writeJSON(w, http.StatusConflict, res)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	if err := s.deps.Auditor.Start(txs); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.deps.Auditor.Latest())
}
