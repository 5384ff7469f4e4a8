package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"grledger/internal/core"
)

var fixedNow = time.Date(2025, 8, 17, 9, 30, 0, 0, time.UTC)

func testOpts() []Option {
	n := 0
	return []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
		WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	}
}

func TestTransactionFormDefaults(t *testing.T) {
	f := NewTransactionForm(core.DefaultCategories(), testOpts()...)
	d := f.Draft()
	if d.Type != core.Expense {
		t.Errorf("default type = %s", d.Type)
	}
	if d.Category != "Biaya Iklan" {
		t.Errorf("default category = %q", d.Category)
	}
	if d.Date != "2025-08-17" {
		t.Errorf("default date = %q", d.Date)
	}
	if f.Editing() {
		t.Error("new form must be in create mode")
	}

	empty := NewTransactionForm(nil, testOpts()...)
	if empty.Draft().Category != "" {
		t.Errorf("no categories should leave category empty, got %q", empty.Draft().Category)
	}
}

func TestTransactionFormTypeCoupling(t *testing.T) {
	cats := []core.Category{
		{ID: "1", Name: "Omset Penjualan", Type: core.Income},
		{ID: "3", Name: "Biaya Iklan", Type: core.Expense},
		{ID: "4", Name: "Biaya Internet", Type: core.Expense},
	}

	tests := []struct {
		name     string
		steps    [][2]string
		wantType core.TransactionType
		wantCat  string
	}{
		{
			name:     "switch to income picks first income category",
			steps:    [][2]string{{FieldType, "INCOME"}},
			wantType: core.Income,
			wantCat:  "Omset Penjualan",
		},
		{
			name:     "matching category survives a type switch",
			steps:    [][2]string{{FieldCategory, "Biaya Internet"}, {FieldType, "EXPENSE"}},
			wantType: core.Expense,
			wantCat:  "Biaya Internet",
		},
		{
			name:     "round trip lands on first expense category",
			steps:    [][2]string{{FieldCategory, "Biaya Internet"}, {FieldType, "income"}, {FieldType, "EXPENSE"}},
			wantType: core.Expense,
			wantCat:  "Biaya Iklan",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTransactionForm(cats, testOpts()...)
			for _, s := range tt.steps {
				if err := f.Update(s[0], s[1]); err != nil {
					t.Fatalf("Update(%s): %v", s[0], err)
				}
			}
			if d := f.Draft(); d.Type != tt.wantType || d.Category != tt.wantCat {
				t.Errorf("draft = %s/%q, want %s/%q", d.Type, d.Category, tt.wantType, tt.wantCat)
			}
		})
	}

	t.Run("type without categories clears the selection", func(t *testing.T) {
		f := NewTransactionForm(cats[1:], testOpts()...)
		if err := f.Update(FieldType, "INCOME"); err != nil {
			t.Fatal(err)
		}
		if got := f.Draft().Category; got != "" {
			t.Errorf("category = %q, want empty", got)
		}
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		f := NewTransactionForm(cats, testOpts()...)
		if err := f.Update(FieldType, "TRANSFER"); !errors.Is(err, core.ErrInvalidType) {
			t.Errorf("expected ErrInvalidType, got %v", err)
		}
	})
}

func TestTransactionFormSubmit(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		date    string
		wantErr error
		want    int64
	}{
		{"plain number", "150000", "2025-08-01", nil, 150000},
		{"grouped rupiah", "Rp 1.500.000", "2025-08-01", nil, 1500000},
		{"empty amount", "", "2025-08-01", core.ErrInvalidAmount, 0},
		{"not a number", "abc", "2025-08-01", core.ErrInvalidAmount, 0},
		{"NaN", "NaN", "2025-08-01", core.ErrInvalidAmount, 0},
		{"bad date", "10", "17/08/2025", core.ErrInvalidDate, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTransactionForm(core.DefaultCategories(), testOpts()...)
			_ = f.Update(FieldAmount, tt.amount)
			_ = f.Update(FieldDate, tt.date)
			_ = f.Update(FieldNote, "  iklan IG  ")

			got, err := f.Submit()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrValidation) {
					t.Fatalf("Submit() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if got.Amount != tt.want || got.ID != "id-1" || got.Note != "iklan IG" {
				t.Errorf("Submit() = %+v", got)
			}
			if got.Date.String() != tt.date {
				t.Errorf("date = %s", got.Date)
			}
		})
	}
}

func TestTransactionFormEditKeepsID(t *testing.T) {
	orig := core.Transaction{ID: "tx-42", Type: core.Income, Category: "Omset Penjualan", Amount: 900, Date: core.NewDate(2025, 1, 2), Note: "dp"}
	f := NewTransactionForm(core.DefaultCategories(), testOpts()...)
	f.Load(&orig)
	if !f.Editing() || f.Draft().Amount != "900" {
		t.Fatalf("edit draft = %+v", f.Draft())
	}
	_ = f.Update(FieldAmount, "1000")

	got, err := f.Submit()
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "tx-42" || got.Amount != 1000 || !got.Date.Equal(orig.Date.Time) {
		t.Errorf("edited = %+v", got)
	}
}

func TestApplyOrdersTypeBeforeCategory(t *testing.T) {
	f := NewTransactionForm(core.DefaultCategories(), testOpts()...)
	err := Apply(f, map[string]string{
		FieldCategory: "Pendapatan Lain",
		FieldType:     "INCOME",
		FieldAmount:   "5000",
	}, TransactionFieldOrder...)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Draft().Category; got != "Pendapatan Lain" {
		t.Errorf("category = %q", got)
	}

	if err := Apply(f, map[string]string{"colour": "red"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestInvoiceFormDefaults(t *testing.T) {
	bank := BankDefaults{BankName: "BCA", AccountName: "PT. GHANIY RIZKY INC", AccountNo: "123"}
	f := NewInvoiceForm(bank, 4, testOpts()...)
	d := f.Draft()

	if d.InvoiceNumber != "CSTM005" {
		t.Errorf("number = %q", d.InvoiceNumber)
	}
	if d.Package != "Custom" || d.JobStatus != "ON PROSES" || !d.IsPaid {
		t.Errorf("defaults = %+v", d)
	}
	if d.InvoiceDate.String() != "2025-08-17" || d.PurchaseDate.String() != "2025-08-17" {
		t.Errorf("dates = %s / %s", d.InvoiceDate, d.PurchaseDate)
	}
	if len(d.Items) != 1 || d.Items[0].Amount != 0 || d.Items[0].Description != "" {
		t.Errorf("items = %+v", d.Items)
	}
	if d.BankName != "BCA" || d.AccountNo != "123" {
		t.Errorf("bank = %+v", d)
	}
}

func TestInvoiceFormSubtotalTracksItems(t *testing.T) {
	f := NewInvoiceForm(BankDefaults{}, 0, testOpts()...)
	first := f.Draft().Items[0].ID
	second := f.AddItem()
	third := f.AddItem()

	steps := []struct {
		name string
		do   func() error
	}{
		{"first amount", func() error { return f.UpdateItem(first, ItemAmount, "1.000.000") }},
		{"second amount", func() error { return f.UpdateItem(second, ItemAmount, "250000") }},
		{"third amount", func() error { return f.UpdateItem(third, ItemAmount, "5000") }},
		{"edit first", func() error { return f.UpdateItem(first, ItemAmount, "750000") }},
		{"blank second", func() error { return f.UpdateItem(second, ItemAmount, "") }},
		{"describe third", func() error { return f.UpdateItem(third, ItemDescription, "Logo") }},
		{"remove third", func() error { return f.RemoveItem(third) }},
		{"add another", func() error { f.AddItem(); return nil }},
	}
	for _, s := range steps {
		if err := s.do(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		d := f.Draft()
		if d.Subtotal != core.SumItems(d.Items) {
			t.Fatalf("after %s: subtotal %d != sum %d", s.name, d.Subtotal, core.SumItems(d.Items))
		}
	}
	if got := f.Draft().Subtotal; got != 750000 {
		t.Errorf("final subtotal = %d", got)
	}

	if err := f.UpdateItem(first, ItemAmount, "lots"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if got := f.Draft().Subtotal; got != 750000 {
		t.Errorf("rejected edit changed subtotal to %d", got)
	}
}

func TestInvoiceFormRemoveLastItem(t *testing.T) {
	f := NewInvoiceForm(BankDefaults{}, 0, testOpts()...)
	only := f.Draft().Items[0].ID
	if err := f.RemoveItem(only); !errors.Is(err, ErrLastItem) {
		t.Fatalf("expected ErrLastItem, got %v", err)
	}
	if len(f.Draft().Items) != 1 {
		t.Error("last item was removed")
	}
	if err := f.RemoveItem("nope"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
}

func TestInvoiceFormUpdateFields(t *testing.T) {
	f := NewInvoiceForm(BankDefaults{}, 0, testOpts()...)
	values := map[string]string{
		FieldCustomerName:  "Budi",
		FieldPPN:           "11,00",
		FieldPaymentAmount: "500.000",
		FieldIsPaid:        "false",
		FieldInvoiceDate:   "2025-09-01",
	}
	if err := Apply(f, values); err != nil {
		t.Fatal(err)
	}
	d := f.Draft()
	if d.CustomerName != "Budi" || d.PPN != 11 || d.PaymentAmount != 500000 || d.IsPaid || d.InvoiceDate.String() != "2025-09-01" {
		t.Errorf("draft = %+v", d)
	}

	if err := f.Update(FieldPPN, "-3"); !errors.Is(err, ErrValidation) {
		t.Errorf("negative ppn: %v", err)
	}
	if err := f.Update(FieldIsPaid, "maybe"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad bool: %v", err)
	}
}

func TestInvoiceFormSubmit(t *testing.T) {
	f := NewInvoiceForm(BankDefaults{}, 0, testOpts()...)
	_ = f.UpdateItem(f.Draft().Items[0].ID, ItemAmount, "2000000")
	created, err := f.Submit()
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || !created.CreatedAt.Equal(fixedNow) || created.Subtotal != 2000000 {
		t.Fatalf("created = %+v", created)
	}

	later := NewInvoiceForm(BankDefaults{}, 1, WithClock(func() time.Time { return fixedNow.Add(48 * time.Hour) }))
	later.Load(&created, 1)
	_ = later.Update(FieldJobStatus, "SELESAI")
	if err := later.SetItems([]core.InvoiceItem{{Description: "Logo", Amount: 1}, {ID: "x", Amount: 2}}); err != nil {
		t.Fatal(err)
	}
	edited, err := later.Submit()
	if err != nil {
		t.Fatal(err)
	}
	if edited.ID != created.ID || !edited.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("identity not preserved: %+v", edited)
	}
	if edited.Subtotal != 3 || edited.JobStatus != "SELESAI" || edited.Items[0].ID == "" {
		t.Errorf("edited = %+v", edited)
	}

	if err := later.SetItems(nil); !errors.Is(err, ErrLastItem) {
		t.Errorf("expected ErrLastItem, got %v", err)
	}
}

func TestBriefFormDefaults(t *testing.T) {
	f := NewBriefForm("sari", testOpts()...)
	d := f.Draft()
	if d.Status != (core.BriefStatus{}) {
		t.Errorf("status = %+v", d.Status)
	}
	if d.Sliders != core.DefaultSliders() {
		t.Errorf("sliders = %+v", d.Sliders)
	}
	if d.PemilihanPaket != core.PackageGold || d.PembuatBrief != "sari" {
		t.Errorf("draft = %+v", d)
	}
}

func TestBriefFormToggleNeedTwiceIsIdentity(t *testing.T) {
	f := NewBriefForm("sari", testOpts()...)
	f.SetNeeds([]string{"website", "packaging", "website", " "})
	before := f.Draft().KebutuhanLogo
	if len(before) != 2 {
		t.Fatalf("SetNeeds = %v", before)
	}

	for _, tag := range core.LogoNeeds {
		f.ToggleNeed(tag)
		f.ToggleNeed(tag)
		after := f.Draft().KebutuhanLogo
		if strings.Join(sortedCopy(after), "|") != strings.Join(sortedCopy(before), "|") {
			t.Fatalf("toggling %q twice: %v -> %v", tag, before, after)
		}
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestBriefFormUpdate(t *testing.T) {
	f := NewBriefForm("sari", testOpts()...)

	tests := []struct {
		field, value string
		wantErr      error
	}{
		{FieldNamaLogo, "Kopi Senja", nil},
		{FieldPemilihanPaket, "platinum", nil},
		{FieldPemilihanPaket, "DIAMOND", core.ErrInvalidPackage},
		{"status.preview", "true", nil},
		{"status.archived", "true", core.ErrUnknownStatus},
		{"sliders.retro", "9", nil},
		{"sliders.retro", "11", core.ErrSliderRange},
		{"sliders.mood", "1", core.ErrUnknownSlider},
		{"colour", "x", ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			err := f.Update(tt.field, tt.value)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	d := f.Draft()
	if d.NamaLogo != "Kopi Senja" || d.PemilihanPaket != core.PackagePlatinum || !d.Status.Preview || d.Sliders.Retro != 9 {
		t.Errorf("draft = %+v", d)
	}
}

func TestBriefFormReferencesAndSubmit(t *testing.T) {
	f := NewBriefForm("sari", testOpts()...)
	if err := f.AddReference("data:image/png;base64,AAAA"); err != nil {
		t.Fatal(err)
	}
	if err := f.AddReference("http://example.com/x.png"); !errors.Is(err, ErrBadReference) {
		t.Errorf("expected ErrBadReference, got %v", err)
	}
	if err := f.RemoveReference(3); err == nil {
		t.Error("expected out of range error")
	}

	b, err := f.Submit()
	if err != nil {
		t.Fatal(err)
	}
	if b.ID != "id-1" || len(b.Referensi) != 1 || !b.CreatedAt.Equal(fixedNow) {
		t.Errorf("brief = %+v", b)
	}

	edit := NewBriefForm("budi", testOpts()...)
	edit.Load(&b, "budi")
	_ = edit.RemoveReference(0)
	_ = edit.Update(FieldCatatan, "warna pastel")
	got, err := edit.Submit()
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != b.ID || !got.CreatedAt.Equal(b.CreatedAt) || got.PembuatBrief != "sari" {
		t.Errorf("edit lost identity: %+v", got)
	}
	if len(got.Referensi) != 0 || len(b.Referensi) != 1 {
		t.Errorf("edit leaked into original: %d / %d", len(got.Referensi), len(b.Referensi))
	}
}

func TestChangeSummary(t *testing.T) {
	a := core.Transaction{ID: "1", Type: core.Expense, Amount: 100, Note: "DP"}
	b := a
	b.Note = "LUNAS"

	patch, err := ChangeSummary(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(patch, "LUNAS") || !strings.Contains(patch, "DP") {
		t.Errorf("patch = %q", patch)
	}

	same, _ := ChangeSummary(a, a)
	if same != "" {
		t.Errorf("identical records produced %q", same)
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   any
		want string
		ok   bool
	}{
		{nil, "", true},
		{"x", "x", true},
		{true, "true", true},
		{float64(1500000), "1500000", true},
		{[]any{1}, "", false},
	}
	for _, c := range cases {
		got, ok := Stringify(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("Stringify(%v) = %q, %v", c.in, got, ok)
		}
	}
}
