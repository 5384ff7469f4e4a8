package forms

import (
	"strconv"
	"strings"

	"grledger/internal/core"
)

// Transaction form fields.
const (
	FieldType     = "type"
	FieldCategory = "category"
	FieldAmount   = "amount"
	FieldNote     = "note"
	FieldDate     = "date"
)

// TransactionFieldOrder applies the type before the category so that an
// explicit category is not overwritten by the type coupling.
var TransactionFieldOrder = []string{FieldType, FieldCategory}

// TransactionDraft is the in-progress state of a transaction, as typed.
type TransactionDraft struct {
	Type     core.TransactionType `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Category string               `json:"category" validate:"max=120"`
	Amount   string               `json:"amount" validate:"required,max=40"`
	Note     string               `json:"note" validate:"max=1000"`
	Date     string               `json:"date" validate:"required,datetime=2006-01-02"`
}

type TransactionForm struct {
	settings
	categories []core.Category
	original   *core.Transaction
	draft      TransactionDraft
}

// NewTransactionForm creates a controller in create mode.
func NewTransactionForm(categories []core.Category, opts ...Option) *TransactionForm {
	f := &TransactionForm{settings: newSettings(opts), categories: categories}
	f.Load(nil)
	return f
}

// Load resets the draft to initial (edit mode) or to defaults (create mode):
// EXPENSE, the first expense category, today, empty amount and note.
func (f *TransactionForm) Load(initial *core.Transaction) {
	if initial != nil {
		orig := *initial
		f.original = &orig
		f.draft = TransactionDraft{
			Type:     orig.Type,
			Category: orig.Category,
			Amount:   strconv.FormatInt(orig.Amount, 10),
			Note:     orig.Note,
			Date:     orig.Date.String(),
		}
		return
	}
	f.original = nil
	f.draft = TransactionDraft{
		Type:     core.Expense,
		Category: f.firstCategory(core.Expense),
		Date:     f.today(),
	}
}

func (f *TransactionForm) Editing() bool { return f.original != nil }

func (f *TransactionForm) Draft() TransactionDraft { return f.draft }

// Update merges one field. Switching the type re-selects the first category
// of the new type unless the current one already belongs to it.
func (f *TransactionForm) Update(field, value string) error {
	switch field {
	case FieldType:
		typ := core.TransactionType(strings.ToUpper(strings.TrimSpace(value)))
		if !typ.Valid() {
			return invalid(field, core.ErrInvalidType)
		}
		f.draft.Type = typ
		if !f.belongs(f.draft.Category, typ) {
			f.draft.Category = f.firstCategory(typ)
		}
	case FieldCategory:
		f.draft.Category = value
	case FieldAmount:
		f.draft.Amount = value
	case FieldNote:
		f.draft.Note = value
	case FieldDate:
		f.draft.Date = strings.TrimSpace(value)
	default:
		return invalid(field, ErrUnknownField)
	}
	return nil
}

// Submit validates the draft and returns the finalized transaction. An edit
// keeps the original id; a new record gets a fresh one.
func (f *TransactionForm) Submit() (core.Transaction, error) {
	if err := check(f.draft); err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(f.draft.Amount)
	if err != nil {
		return core.Transaction{}, invalid(FieldAmount, err)
	}
	date, err := core.ParseDate(f.draft.Date)
	if err != nil {
		return core.Transaction{}, invalid(FieldDate, err)
	}

	id := f.newID()
	if f.original != nil {
		id = f.original.ID
	}
	return core.Transaction{
		ID:       id,
		Type:     f.draft.Type,
		Category: f.draft.Category,
		Amount:   amount,
		Date:     date,
		Note:     strings.TrimSpace(f.draft.Note),
	}, nil
}

func (f *TransactionForm) belongs(name string, typ core.TransactionType) bool {
	for _, c := range f.categories {
		if c.Type == typ && c.Name == name {
			return true
		}
	}
	return false
}

func (f *TransactionForm) firstCategory(typ core.TransactionType) string {
	for _, c := range f.categories {
		if c.Type == typ {
			return c.Name
		}
	}
	return ""
}
