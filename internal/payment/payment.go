// Package payment creates Midtrans Snap payment links for unpaid invoice
// balances.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"grledger/internal/core"
	"grledger/internal/log"
)

var (
	ErrDisabled     = errors.New("payment links are not configured")
	ErrNothingToPay = errors.New("invoice has no outstanding balance")
)

// snapAPI is the part of snap.Client used here.
type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// Link is a created payment page.
type Link struct {
	OrderID string `json:"orderId"`
	Token   string `json:"token"`
	URL     string `json:"url"`
}

type Links struct {
	client snapAPI
	newID  core.IDFunc
	logger *log.Logger
}

// NewLinks returns a disabled Links when serverKey is empty.
func NewLinks(serverKey string, production bool, logger *log.Logger) *Links {
	if logger == nil {
		logger = log.Discard()
	}
	l := &Links{newID: core.NewID, logger: logger.WithComponent(log.ComponentPayment)}
	if serverKey == "" {
		return l
	}
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var c snap.Client
	c.New(serverKey, env)
	l.client = &c
	return l
}

func (l *Links) Enabled() bool { return l.client != nil }

// Create opens a Snap transaction for the invoice's balance.
func (l *Links) Create(ctx context.Context, inv core.Invoice) (Link, error) {
	if !l.Enabled() {
		return Link{}, ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return Link{}, err
	}
	balance := inv.Balance()
	if inv.IsPaid || balance <= 0 {
		return Link{}, ErrNothingToPay
	}

	orderID := OrderID(inv.InvoiceNumber, l.newID())
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: balance,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: inv.CustomerName,
			Phone: inv.PhoneNumber,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    orderID,
			Name:  truncate("Pelunasan "+inv.InvoiceNumber, 50),
			Price: balance,
			Qty:   1,
		}},
	}

	resp, merr := l.client.CreateTransaction(req)
	if merr != nil {
		l.logger.Warn("Snap transaction failed",
			log.FieldRecordID, inv.ID,
			log.FieldError, merr.GetMessage())
		return Link{}, fmt.Errorf("create snap transaction: %s", merr.GetMessage())
	}

	l.logger.Info("Payment link created",
		log.FieldRecordID, inv.ID,
		log.FieldAmount, balance,
		"order_id", orderID)
	return Link{OrderID: orderID, Token: resp.Token, URL: resp.RedirectURL}, nil
}

// OrderID joins the invoice number with the first block of a fresh id so
// repeated links for one invoice stay unique.
func OrderID(invoiceNumber, id string) string {
	short, _, _ := strings.Cut(id, "-")
	if invoiceNumber == "" {
		return short
	}
	return invoiceNumber + "-" + short
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
