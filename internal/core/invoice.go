package core

import (
	"math"
	"time"
)

// InvoiceItem is one billed line. Quantity is free text ("1 Paket").
type InvoiceItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Amount      int64  `json:"amount"`
}

type Invoice struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customerName"`
	PhoneNumber   string        `json:"phoneNumber"`
	Company       string        `json:"company"`
	Address       string        `json:"address"`
	Package       string        `json:"package"`
	InvoiceNumber string        `json:"invoiceNumber"`
	InvoiceDate   Date          `json:"invoiceDate"`
	PurchaseDate  Date          `json:"purchaseDate"`
	JobStatus     string        `json:"jobStatus"`
	Items         []InvoiceItem `json:"items"`
	Subtotal      int64         `json:"subtotal"`
	PaymentAmount int64         `json:"paymentAmount"`
	PPN           float64       `json:"ppn"`
	AccountNo     string        `json:"accountNo"`
	AccountName   string        `json:"accountName"`
	BankName      string        `json:"bankName"`
	IsPaid        bool          `json:"isPaid"`
	PaymentURL    string        `json:"paymentUrl,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// SumItems adds up item amounts.
func SumItems(items []InvoiceItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Amount
	}
	return total
}

// TaxAmount is the PPN share of the subtotal, rounded to whole rupiah.
func (inv Invoice) TaxAmount() int64 {
	return int64(math.Round(float64(inv.Subtotal) * inv.PPN / 100))
}

func (inv Invoice) Total() int64 {
	return inv.Subtotal + inv.TaxAmount()
}

// Balance is what is still owed after PaymentAmount.
func (inv Invoice) Balance() int64 {
	if b := inv.Total() - inv.PaymentAmount; b > 0 {
		return b
	}
	return 0
}

func (inv Invoice) Validate() error {
	if inv.ID == "" {
		return ErrEmptyID
	}
	if inv.PaymentAmount < 0 || inv.Subtotal < 0 {
		return ErrInvalidAmount
	}
	for _, it := range inv.Items {
		if it.Amount < 0 {
			return ErrInvalidAmount
		}
	}
	if inv.PPN < 0 || math.IsNaN(inv.PPN) || math.IsInf(inv.PPN, 0) {
		return ErrInvalidAmount
	}
	return nil
}
