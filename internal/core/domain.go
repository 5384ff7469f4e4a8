package core

import (
	"errors"
	"strings"
	"time"
)

// TransactionType is the direction of a cash movement.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// Valid reports whether t is INCOME or EXPENSE.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction is a single ledger entry.
type Transaction struct {
	ID       string          `json:"id"`
	Type     TransactionType `json:"type"`
	Category string          `json:"category"`
	Amount   int64           `json:"amount"`
	Date     Date            `json:"date"`
	Note     string          `json:"note"`
}

// Category is an entry of the income/expense taxonomy. Transactions refer to
// it by name, so removing a category leaves those references dangling.
type Category struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyName      = errors.New("empty name")
	ErrEmptyID        = errors.New("empty id")
	ErrInvalidPackage = errors.New("invalid package")
	ErrSliderRange    = errors.New("slider value out of range")
	ErrUnknownSlider  = errors.New("unknown slider axis")
	ErrUnknownStatus  = errors.New("unknown status flag")
	ErrEmptyUsername  = errors.New("empty username")
	ErrInvalidRole    = errors.New("invalid role")
)

// Signed returns the amount as a cash flow: positive for income, negative
// for expense.
func (t Transaction) Signed() int64 {
	if t.Type == Expense {
		return -t.Amount
	}
	return t.Amount
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	return t.Date.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Matches reports whether c has the given name and type, ignoring case and
// surrounding whitespace in the name.
func (c Category) Matches(name string, typ TransactionType) bool {
	return c.Type == typ && strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name))
}

// DefaultCategories is the taxonomy used when none has been stored yet.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Omset Penjualan", Type: Income},
		{ID: "2", Name: "Pendapatan Lain", Type: Income},
		{ID: "3", Name: "Biaya Iklan", Type: Expense},
		{ID: "4", Name: "Biaya Karyawan", Type: Expense},
		{ID: "5", Name: "Biaya Internet", Type: Expense},
		{ID: "6", Name: "Biaya Rumah Tangga", Type: Expense},
		{ID: "7", Name: "Biaya Konsumsi", Type: Expense},
		{ID: "8", Name: "Biaya Kontrakan", Type: Expense},
		{ID: "9", Name: "Biaya Maintenance", Type: Expense},
	}
}

// CategoriesOf filters cats to one type, keeping declared order.
func CategoriesOf(cats []Category, typ TransactionType) []Category {
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// Date is a calendar day. It is stored as "2006-01-02" and accepts full
// RFC 3339 timestamps when decoding.
type Date struct {
	time.Time
}

const DateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses "2006-01-02" or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
