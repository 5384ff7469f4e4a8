package forms

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"grledger/internal/core"
)

// Invoice form fields.
const (
	FieldCustomerName  = "customerName"
	FieldPhoneNumber   = "phoneNumber"
	FieldCompany       = "company"
	FieldAddress       = "address"
	FieldPackage       = "package"
	FieldInvoiceNumber = "invoiceNumber"
	FieldInvoiceDate   = "invoiceDate"
	FieldPurchaseDate  = "purchaseDate"
	FieldJobStatus     = "jobStatus"
	FieldPaymentAmount = "paymentAmount"
	FieldPPN           = "ppn"
	FieldAccountNo     = "accountNo"
	FieldAccountName   = "accountName"
	FieldBankName      = "bankName"
	FieldIsPaid        = "isPaid"
)

// Item fields.
const (
	ItemDescription = "description"
	ItemQuantity    = "quantity"
	ItemAmount      = "amount"
)

const (
	DefaultInvoicePackage = "Custom"
	DefaultJobStatus      = "ON PROSES"
	invoiceNumberFormat   = "CSTM%03d"
)

// BankDefaults are the payment details printed on new invoices.
type BankDefaults struct {
	BankName    string
	AccountName string
	AccountNo   string
}

// invoiceRules is the subset of the draft checked by the validator.
type invoiceRules struct {
	Items         []core.InvoiceItem `json:"items" validate:"min=1"`
	PaymentAmount int64              `json:"paymentAmount" validate:"gte=0"`
	PPN           float64            `json:"ppn" validate:"gte=0,lte=100"`
}

type InvoiceForm struct {
	settings
	bank     BankDefaults
	original *core.Invoice
	draft    core.Invoice
}

// NewInvoiceForm creates a controller in create mode for the given number of
// already stored invoices.
func NewInvoiceForm(bank BankDefaults, existing int, opts ...Option) *InvoiceForm {
	f := &InvoiceForm{settings: newSettings(opts), bank: bank}
	f.Load(nil, existing)
	return f
}

// InvoiceNumber formats the default number for the n-th invoice.
func InvoiceNumber(n int) string {
	return fmt.Sprintf(invoiceNumberFormat, n)
}

// Load resets the draft. existing is only used in create mode to number the
// new invoice.
func (f *InvoiceForm) Load(initial *core.Invoice, existing int) {
	if initial != nil {
		orig := *initial
		f.original = &orig
		f.draft = orig
		f.draft.Items = slices.Clone(initial.Items)
		if len(f.draft.Items) == 0 {
			f.draft.Items = []core.InvoiceItem{{ID: f.newID()}}
		}
		f.recompute()
		return
	}

	today, _ := core.ParseDate(f.today())
	f.original = nil
	f.draft = core.Invoice{
		Package:       DefaultInvoicePackage,
		InvoiceNumber: InvoiceNumber(existing + 1),
		InvoiceDate:   today,
		PurchaseDate:  today,
		JobStatus:     DefaultJobStatus,
		Items:         []core.InvoiceItem{{ID: f.newID()}},
		AccountNo:     f.bank.AccountNo,
		AccountName:   f.bank.AccountName,
		BankName:      f.bank.BankName,
		IsPaid:        true,
	}
}

func (f *InvoiceForm) Editing() bool { return f.original != nil }

// Draft returns a copy of the staged invoice.
func (f *InvoiceForm) Draft() core.Invoice {
	d := f.draft
	d.Items = slices.Clone(f.draft.Items)
	return d
}

// Update merges one top-level field.
func (f *InvoiceForm) Update(field, value string) error {
	d := &f.draft
	switch field {
	case FieldCustomerName:
		d.CustomerName = value
	case FieldPhoneNumber:
		d.PhoneNumber = value
	case FieldCompany:
		d.Company = value
	case FieldAddress:
		d.Address = value
	case FieldPackage:
		d.Package = value
	case FieldInvoiceNumber:
		d.InvoiceNumber = strings.TrimSpace(value)
	case FieldJobStatus:
		d.JobStatus = value
	case FieldAccountNo:
		d.AccountNo = value
	case FieldAccountName:
		d.AccountName = value
	case FieldBankName:
		d.BankName = value
	case FieldInvoiceDate, FieldPurchaseDate:
		date, err := core.ParseDate(value)
		if err != nil {
			return invalid(field, err)
		}
		if field == FieldInvoiceDate {
			d.InvoiceDate = date
		} else {
			d.PurchaseDate = date
		}
	case FieldPaymentAmount:
		n, err := parseOptionalAmount(value)
		if err != nil {
			return invalid(field, err)
		}
		d.PaymentAmount = n
	case FieldPPN:
		p, err := core.ParsePercent(value)
		if err != nil {
			return invalid(field, err)
		}
		d.PPN = p
	case FieldIsPaid:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return invalid(field, err)
		}
		d.IsPaid = b
	default:
		return invalid(field, ErrUnknownField)
	}
	return nil
}

// AddItem appends a blank line and returns its id.
func (f *InvoiceForm) AddItem() string {
	id := f.newID()
	f.draft.Items = append(f.draft.Items, core.InvoiceItem{ID: id})
	f.recompute()
	return id
}

// RemoveItem drops a line. The last remaining line cannot be removed.
func (f *InvoiceForm) RemoveItem(id string) error {
	i := f.itemIndex(id)
	if i < 0 {
		return ErrUnknownItem
	}
	if len(f.draft.Items) == 1 {
		return ErrLastItem
	}
	f.draft.Items = slices.Delete(f.draft.Items, i, i+1)
	f.recompute()
	return nil
}

// UpdateItem changes one field of a line. A blank amount counts as zero.
func (f *InvoiceForm) UpdateItem(id, field, value string) error {
	i := f.itemIndex(id)
	if i < 0 {
		return ErrUnknownItem
	}
	it := &f.draft.Items[i]
	switch field {
	case ItemDescription:
		it.Description = value
	case ItemQuantity:
		it.Quantity = value
	case ItemAmount:
		n, err := parseOptionalAmount(value)
		if err != nil {
			return invalid("items."+field, err)
		}
		it.Amount = n
	default:
		return invalid("items."+field, ErrUnknownField)
	}
	f.recompute()
	return nil
}

// SetItems replaces every line at once. Lines without an id get one.
func (f *InvoiceForm) SetItems(items []core.InvoiceItem) error {
	if len(items) == 0 {
		return ErrLastItem
	}
	next := make([]core.InvoiceItem, len(items))
	for i, it := range items {
		if it.Amount < 0 {
			return invalid("items.amount", core.ErrInvalidAmount)
		}
		if it.ID == "" {
			it.ID = f.newID()
		}
		next[i] = it
	}
	f.draft.Items = next
	f.recompute()
	return nil
}

// Submit returns the finalized invoice. Editing keeps id and createdAt.
func (f *InvoiceForm) Submit() (core.Invoice, error) {
	if err := check(invoiceRules{Items: f.draft.Items, PaymentAmount: f.draft.PaymentAmount, PPN: f.draft.PPN}); err != nil {
		return core.Invoice{}, err
	}
	inv := f.Draft()
	inv.Subtotal = core.SumItems(inv.Items)
	if f.original != nil {
		inv.ID = f.original.ID
		inv.CreatedAt = f.original.CreatedAt
		inv.PaymentURL = f.original.PaymentURL
	} else {
		inv.ID = f.newID()
		inv.CreatedAt = f.now().UTC()
	}
	return inv, nil
}

func (f *InvoiceForm) recompute() {
	f.draft.Subtotal = core.SumItems(f.draft.Items)
}

func (f *InvoiceForm) itemIndex(id string) int {
	return slices.IndexFunc(f.draft.Items, func(it core.InvoiceItem) bool { return it.ID == id })
}

func parseOptionalAmount(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return core.ParseAmount(s)
}
