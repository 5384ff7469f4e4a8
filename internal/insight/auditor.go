package insight

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"grledger/internal/core"
	"grledger/internal/log"
	"grledger/internal/report"
)

// Texts shown instead of a narrative.
const (
	NotEnoughData   = "Data tidak cukup. Tambahkan transaksi untuk memulai analisis."
	EmptyAnswer     = "Analisis gagal."
	ConnectionError = "Gagal terhubung ke AI Intelligence System."
)

// ErrBusy is returned while an analysis is already running.
var ErrBusy = errors.New("analysis already running")

// Insight is the latest analysis.
type Insight struct {
	Text    string    `json:"text"`
	At      time.Time `json:"at,omitempty"`
	Running bool      `json:"running"`
}

// Auditor runs one analysis at a time and keeps the last result.
type Auditor struct {
	provider Provider
	timeout  time.Duration
	logger   *log.Logger
	now      func() time.Time

	busy   atomic.Bool
	mu     sync.RWMutex
	latest Insight
}

// NewAuditor returns an Auditor. A nil provider makes every run end with
// ConnectionError.
func NewAuditor(p Provider, timeout time.Duration, logger *log.Logger) *Auditor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Auditor{
		provider: p,
		timeout:  timeout,
		logger:   logger.WithComponent(log.ComponentInsight),
		now:      time.Now,
	}
}

// Run analyses txs and stores the outcome. Provider failures become one of
// the fallback texts, so the only error is ErrBusy.
func (a *Auditor) Run(ctx context.Context, txs []core.Transaction) (Insight, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return a.Latest(), ErrBusy
	}
	defer a.busy.Store(false)
	return a.store(a.analyse(ctx, txs)), nil
}

// Start runs the analysis in the background. The transactions are the
// caller's copy and are read after Start returns.
func (a *Auditor) Start(txs []core.Transaction) error {
	if !a.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	go func() {
		defer a.busy.Store(false)
		a.store(a.analyse(context.Background(), txs))
	}()
	return nil
}

func (a *Auditor) store(text string) Insight {
	res := Insight{Text: text, At: a.now().UTC()}
	a.mu.Lock()
	a.latest = res
	a.mu.Unlock()
	return res
}

// Latest returns the last stored analysis and whether one is in progress.
func (a *Auditor) Latest() Insight {
	a.mu.RLock()
	res := a.latest
	a.mu.RUnlock()
	res.Running = a.busy.Load()
	return res
}

func (a *Auditor) analyse(ctx context.Context, txs []core.Transaction) string {
	if len(txs) == 0 {
		return NotEnoughData
	}
	if a.provider == nil {
		a.logger.Warn("No insight provider configured")
		return ConnectionError
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(report.Totals(txs), report.ExpenseBreakdown(txs))
	start := time.Now()
	out, err := a.provider.Complete(ctx, prompt)
	if err != nil {
		a.logger.Err(ctx, "Insight request failed", err)
		return ConnectionError
	}
	a.logger.Info("Insight generated", log.FieldDuration, time.Since(start).Milliseconds())
	if strings.TrimSpace(out) == "" {
		return EmptyAnswer
	}
	return out
}
