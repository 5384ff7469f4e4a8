package memory

import (
	"context"
	"errors"
	"testing"

	"grledger/internal/core"
)

func TestExporterKeepsLastWrite(t *testing.T) {
	e := New()
	ctx := context.Background()

	tx := core.Transaction{ID: "t1", Type: core.Income, Amount: 5, Date: core.NewDate(2025, 1, 1)}
	if _, err := e.WriteTransactions(ctx, []core.Transaction{tx, tx}); err != nil {
		t.Fatal(err)
	}
	rng, err := e.WriteTransactions(ctx, []core.Transaction{tx})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(e.Rows(rng)); got != 2 {
		t.Errorf("rows = %d, want header + 1", got)
	}

	rng, err = e.WriteReport(ctx, 2025, []core.Bucket{{Index: 1, Label: "Januari"}})
	if err != nil || rng != "'2025 Laporan'!A1" {
		t.Fatalf("WriteReport() = %q, %v", rng, err)
	}
	if e.Writes() != 3 {
		t.Errorf("Writes() = %d, want 3", e.Writes())
	}
}

func TestExporterFailure(t *testing.T) {
	e := New()
	boom := errors.New("quota")
	e.FailWith(boom)
	if _, err := e.WriteTransactions(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	e.FailWith(nil)
	if _, err := e.WriteTransactions(context.Background(), nil); err != nil {
		t.Errorf("recovered exporter failed: %v", err)
	}
}
