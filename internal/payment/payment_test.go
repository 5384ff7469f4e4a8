package payment

import (
	"context"
	"errors"
	"testing"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"grledger/internal/core"
)

type fakeSnap struct {
	req  *snap.Request
	fail bool
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.req = req
	if f.fail {
		return nil, &midtrans.Error{Message: "denied", StatusCode: 401}
	}
	return &snap.Response{Token: "tok", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/tok"}, nil
}

func invoice(subtotal, paid int64, isPaid bool) core.Invoice {
	return core.Invoice{
		ID:            "inv-1",
		CustomerName:  "Rina",
		PhoneNumber:   "0812",
		InvoiceNumber: "CSTM001",
		Items:         []core.InvoiceItem{{ID: "i1", Amount: subtotal}},
		Subtotal:      subtotal,
		PaymentAmount: paid,
		IsPaid:        isPaid,
	}
}

func TestDisabledWithoutKey(t *testing.T) {
	l := NewLinks("", false, nil)
	if l.Enabled() {
		t.Fatal("enabled without key")
	}
	if _, err := l.Create(context.Background(), invoice(100, 0, false)); !errors.Is(err, ErrDisabled) {
		t.Errorf("Create() error = %v, want ErrDisabled", err)
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name      string
		inv       core.Invoice
		fail      bool
		wantErr   error
		wantGross int64
	}{
		{"outstanding balance", invoice(1_500_000, 500_000, false), false, nil, 1_000_000},
		{"marked paid", invoice(1_500_000, 0, true), false, ErrNothingToPay, 0},
		{"fully paid amount", invoice(1_500_000, 1_500_000, false), false, ErrNothingToPay, 0},
		{"gateway error", invoice(100, 0, false), true, errors.New("any"), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeSnap{fail: tt.fail}
			l := &Links{client: fake, newID: func() string { return "abcd1234-0000" }}
			l.logger = NewLinks("", false, nil).logger

			link, err := l.Create(context.Background(), tt.inv)
			switch {
			case tt.wantErr == nil && err != nil:
				t.Fatalf("Create() error = %v", err)
			case tt.wantErr != nil && err == nil:
				t.Fatalf("Create() succeeded, want error")
			case errors.Is(tt.wantErr, ErrNothingToPay) && !errors.Is(err, ErrNothingToPay):
				t.Fatalf("Create() error = %v, want ErrNothingToPay", err)
			}
			if tt.wantGross == 0 {
				if fake.req != nil {
					t.Error("gateway called for a settled invoice")
				}
				return
			}
			if got := fake.req.TransactionDetails.GrossAmt; got != tt.wantGross {
				t.Errorf("GrossAmt = %d, want %d", got, tt.wantGross)
			}
			if fake.req.TransactionDetails.OrderID != "CSTM001-abcd1234" {
				t.Errorf("OrderID = %q", fake.req.TransactionDetails.OrderID)
			}
			if err == nil && link.URL == "" {
				t.Error("empty redirect URL")
			}
		})
	}
}

func TestOrderID(t *testing.T) {
	if got := OrderID("CSTM007", "0f1e2d3c-aaaa-bbbb"); got != "CSTM007-0f1e2d3c" {
		t.Errorf("OrderID() = %q", got)
	}
	if got := OrderID("", "0f1e2d3c-aaaa"); got != "0f1e2d3c" {
		t.Errorf("OrderID() without number = %q", got)
	}
}
