package insight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"grledger/internal/core"
)

type fakeProvider struct {
	out    string
	err    error
	prompt string
	block  chan struct{}
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

func sample() []core.Transaction {
	return []core.Transaction{
		{ID: "1", Type: core.Income, Category: "Omset Penjualan", Amount: 1_000_000, Date: core.NewDate(2025, 8, 1)},
		{ID: "2", Type: core.Expense, Category: "Biaya Iklan", Amount: 400_000, Date: core.NewDate(2025, 8, 2)},
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(
		core.Totals{Income: 1_000_000, Expense: 400_000, Profit: 600_000},
		[]core.CategoryValue{{Name: "Biaya Iklan", Value: 300_000}, {Name: "Biaya Internet", Value: 100_000}},
	)

	for _, want := range []string{
		"- Total Omset: Rp 1.000.000",
		"- Total Pengeluaran: Rp 400.000",
		"- Laba Bersih: Rp 600.000",
		"- Rincian Pengeluaran: Biaya Iklan: Rp 300.000, Biaya Internet: Rp 100.000",
		"SKOR KESEHATAN KEUANGAN (0-100)",
		"Format Markdown",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\n%s", want, got)
		}
	}
}

func TestAuditorRun(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		txs      []core.Transaction
		want     string
	}{
		{"no transactions", &fakeProvider{out: "x"}, nil, NotEnoughData},
		{"answer", &fakeProvider{out: "## Skor: 80"}, sample(), "## Skor: 80"},
		{"empty answer", &fakeProvider{out: "  "}, sample(), EmptyAnswer},
		{"provider error", &fakeProvider{err: errors.New("boom")}, sample(), ConnectionError},
		{"no provider", nil, sample(), ConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuditor(tt.provider, time.Second, nil)
			got, err := a.Run(context.Background(), tt.txs)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got.Text != tt.want {
				t.Errorf("Run() = %q, want %q", got.Text, tt.want)
			}
			if a.Latest().Text != tt.want {
				t.Errorf("Latest() = %q", a.Latest().Text)
			}
		})
	}
}

func TestAuditorPromptUsesBreakdown(t *testing.T) {
	p := &fakeProvider{out: "ok"}
	a := NewAuditor(p, time.Second, nil)
	if _, err := a.Run(context.Background(), sample()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.prompt, "Biaya Iklan: Rp 400.000") {
		t.Errorf("prompt = %s", p.prompt)
	}
}

func TestAuditorBusy(t *testing.T) {
	p := &fakeProvider{out: "done", block: make(chan struct{})}
	a := NewAuditor(p, 5*time.Second, nil)

	if err := a.Start(sample()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(sample()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start() error = %v, want ErrBusy", err)
	}
	if _, err := a.Run(context.Background(), sample()); !errors.Is(err, ErrBusy) {
		t.Errorf("Run() while busy error = %v, want ErrBusy", err)
	}
	if !a.Latest().Running {
		t.Error("Latest() does not report the running analysis")
	}

	close(p.block)
	deadline := time.Now().Add(2 * time.Second)
	for a.Latest().Running && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := a.Latest(); got.Running || got.Text != "done" {
		t.Errorf("Latest() = %+v", got)
	}
}

func TestAuditorTimeout(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{})}
	a := NewAuditor(p, 10*time.Millisecond, nil)

	got, err := a.Run(context.Background(), sample())
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != ConnectionError {
		t.Errorf("Run() = %q, want %q", got.Text, ConnectionError)
	}
}
