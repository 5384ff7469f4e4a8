package core

import (
	"encoding/json"
	"fmt"
	"math"
)

// Blobs written by earlier versions of the dashboard store amounts as plain
// JSON numbers, sometimes with a fraction, and user passwords in clear text.
// The decoders below accept both shapes.

// wholeRupiah rounds a JSON number to whole rupiah. An absent value is 0.
func wholeRupiah(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.Abs(f) > maxAmount {
		return 0, fmt.Errorf("amount %q: %w", n.String(), ErrInvalidAmount)
	}
	return int64(math.Round(f)), nil
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	type plain Transaction
	aux := struct {
		*plain
		Amount json.Number `json:"amount"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	v, err := wholeRupiah(aux.Amount)
	if err != nil {
		return err
	}
	t.Amount = v
	return nil
}

func (it *InvoiceItem) UnmarshalJSON(b []byte) error {
	type plain InvoiceItem
	aux := struct {
		*plain
		Amount json.Number `json:"amount"`
	}{plain: (*plain)(it)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	v, err := wholeRupiah(aux.Amount)
	if err != nil {
		return err
	}
	it.Amount = v
	return nil
}

func (inv *Invoice) UnmarshalJSON(b []byte) error {
	type plain Invoice
	aux := struct {
		*plain
		Subtotal      json.Number `json:"subtotal"`
		PaymentAmount json.Number `json:"paymentAmount"`
	}{plain: (*plain)(inv)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if inv.Subtotal, err = wholeRupiah(aux.Subtotal); err != nil {
		return err
	}
	if inv.PaymentAmount, err = wholeRupiah(aux.PaymentAmount); err != nil {
		return err
	}
	return nil
}

// UnmarshalJSON keeps a clear-text "password" from old directories aside so
// the ledger can hash it on load. It is never encoded again.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	aux := struct {
		*plain
		Password string `json:"password"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	u.legacyPassword = aux.Password
	return nil
}

// TakeLegacyPassword returns the clear-text password read from an old blob
// and forgets it.
func (u *User) TakeLegacyPassword() string {
	p := u.legacyPassword
	u.legacyPassword = ""
	return p
}
