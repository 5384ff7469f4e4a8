package http

import (
	"errors"
	"fmt"
	"net/http"

	"grledger/internal/core"
	"grledger/internal/forms"
	"grledger/internal/ledger"
	"grledger/internal/payment"
)

var invoiceReadOnly = []string{"id", "items", "subtotal", "paymentUrl", "createdAt"}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.App.Invoices())
}

func (s *Server) newInvoiceForm() *forms.InvoiceForm {
	return forms.NewInvoiceForm(s.deps.Bank, len(s.deps.App.Invoices()), s.formOptions()...)
}

func (s *Server) handleNewInvoice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.newInvoiceForm().Draft())
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	s.saveInvoice(w, r, s.newInvoiceForm())
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.deps.App.Invoice(r.PathValue("id"))
	if !ok {
		writeError(w, r, ledger.ErrNotFound)
		return
	}
	f := s.newInvoiceForm()
	f.Load(&existing, 0)
	s.saveInvoice(w, r, f)
}

func (s *Server) saveInvoice(w http.ResponseWriter, r *http.Request, f *forms.InvoiceForm) {
	p, err := s.parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	values, err := p.Values(invoiceReadOnly...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := forms.Apply(f, values); err != nil {
		writeError(w, r, err)
		return
	}
	if p.Has("items") {
		var items []core.InvoiceItem
		if err := p.Decode("items", &items); err != nil {
			writeError(w, r, err)
			return
		}
		if err := f.SetItems(items); err != nil {
			writeError(w, r, err)
			return
		}
	}
	inv, err := f.Submit()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, ledger.SaveInvoice{Invoice: inv})
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, ledger.DeleteInvoice{ID: r.PathValue("id"), Confirmed: confirmed(r)})
}

type paymentLinkResponse struct {
	Link    payment.Link `json:"link"`
	Warning string       `json:"warning,omitempty"`
}

// handlePaymentLink opens a Snap payment page for the invoice balance and
// stores its URL on the invoice.
func (s *Server) handlePaymentLink(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.deps.App.Invoice(r.PathValue("id"))
	if !ok {
		writeError(w, r, ledger.ErrNotFound)
		return
	}
	if s.deps.Payments == nil {
		writeError(w, r, payment.ErrDisabled)
		return
	}

	link, err := s.deps.Payments.Create(r.Context(), inv)
	switch {
	case err == nil:
	case errors.Is(err, payment.ErrDisabled), errors.Is(err, payment.ErrNothingToPay):
		writeError(w, r, err)
		return
	default:
		NewJSONResponse().
			Status(http.StatusBadGateway).
			Body(ErrorBody{Error: fmt.Sprintf("Gagal membuat link pembayaran: %v", err)}).
			Write(w)
		return
	}

	res, err := s.deps.App.Dispatch(r.Context(), ledger.SetPaymentURL{InvoiceID: inv.ID, URL: link.URL})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentLinkResponse{Link: link, Warning: res.Warning})
}
