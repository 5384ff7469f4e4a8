package http

import (
	"net/http"
	"strings"

	"grledger/internal/core"
	"grledger/internal/forms"
	"grledger/internal/ledger"
)

// Keys clients may echo back from a listed record. They are owned by the
// server and never applied from input.
var transactionReadOnly = []string{"id"}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.deps.App.Transactions()
	if typ := core.TransactionType(strings.ToUpper(r.URL.Query().Get("type"))); typ != "" {
		filtered := make([]core.Transaction, 0, len(txs))
		for _, t := range txs {
			if t.Type == typ {
				filtered = append(filtered, t)
			}
		}
		txs = filtered
	}
	writeJSON(w, http.StatusOK, txs)
}

// handleNewTransaction returns the create-mode defaults of the form.
func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request) {
	f := forms.NewTransactionForm(s.deps.App.Categories(), s.formOptions()...)
	writeJSON(w, http.StatusOK, f.Draft())
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	f := forms.NewTransactionForm(s.deps.App.Categories(), s.formOptions()...)
	s.saveTransaction(w, r, f)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.deps.App.Transaction(r.PathValue("id"))
	if !ok {
		writeError(w, r, ledger.ErrNotFound)
		return
	}
	f := forms.NewTransactionForm(s.deps.App.Categories(), s.formOptions()...)
	f.Load(&existing)
	s.saveTransaction(w, r, f)
}

func (s *Server) saveTransaction(w http.ResponseWriter, r *http.Request, f *forms.TransactionForm) {
	p, err := s.parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	values, err := p.Values(transactionReadOnly...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := forms.Apply(f, values, forms.TransactionFieldOrder...); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := f.Submit()
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.App.Dispatch(r.Context(), ledger.SaveTransaction{Transaction: tx})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, resultStatus(res), res)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, ledger.DeleteTransaction{ID: r.PathValue("id"), Confirmed: confirmed(r)})
}

// dispatch runs cmd and writes its result.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, cmd ledger.Command) {
	res, err := s.deps.App.Dispatch(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, resultStatus(res), res)
}
