package http

import (
	"net/http"
	"strings"

	"grledger/internal/core"
	"grledger/internal/ledger"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if typ := strings.ToUpper(r.URL.Query().Get("type")); typ != "" {
		writeJSON(w, http.StatusOK, s.deps.App.CategoriesOf(core.TransactionType(typ)))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.App.Categories())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, ledger.AddCategory{
		Name: p.Get("name"),
		Type: core.TransactionType(strings.ToUpper(p.Get("type"))),
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, ledger.DeleteCategory{ID: r.PathValue("id"), Confirmed: confirmed(r)})
}
