package http

import (
	"net/http"

	"grledger/internal/ledger"
)

func (s *Server) handlePrintInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.deps.App.Invoice(r.PathValue("id"))
	if !ok {
		writeError(w, r, ledger.ErrNotFound)
		return
	}
	s.writePage(w, r, func() ([]byte, error) { return s.deps.Renderer.Invoice(inv) })
}

func (s *Server) handlePrintBrief(w http.ResponseWriter, r *http.Request) {
	b, ok := s.deps.App.Brief(r.PathValue("id"))
	if !ok {
		writeError(w, r, ledger.ErrNotFound)
		return
	}
	s.writePage(w, r, func() ([]byte, error) { return s.deps.Renderer.Brief(b) })
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, page func() ([]byte, error)) {
	if s.deps.Renderer == nil {
		http.Error(w, "print pages are not available", http.StatusServiceUnavailable)
		return
	}
	body, err := page()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
