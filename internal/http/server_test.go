package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"grledger/internal/auth"
	"grledger/internal/cache"
	"grledger/internal/core"
	"grledger/internal/insight"
	"grledger/internal/ledger"
	"grledger/internal/middleware/ratelimit"
	"grledger/internal/payment"
	"grledger/internal/render"
	"grledger/internal/report"
	"grledger/internal/storage/memory"
)

var testNow = time.Date(2025, 8, 17, 9, 0, 0, 0, time.UTC)

type stubProvider struct{ out string }

func (p stubProvider) Complete(context.Context, string) (string, error) { return p.out, nil }

type testEnv struct {
	srv   *Server
	app   *ledger.App
	blobs *memory.Store
	token string
}

func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()
	blobs := memory.New(0)
	n := 0
	app := ledger.New(blobs, ledger.Options{
		Now:           func() time.Time { return testNow },
		NewID:         func() string { n++; return fmt.Sprintf("id-%d", n) },
		BcryptCost:    bcrypt.MinCost,
		AdminPassword: "admin123",
	})
	if err := app.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	renderer, err := render.New(cache.NewLRUCache[[]byte](16, 0), nil)
	if err != nil {
		t.Fatalf("render.New() error = %v", err)
	}

	deps := Deps{
		App:      app,
		Auth:     auth.NewAuthenticator(app, 0),
		Tokens:   auth.NewTokens([]byte("test-secret"), time.Hour),
		Auditor:  insight.NewAuditor(stubProvider{out: "## Skor: 80"}, time.Second, nil),
		Renderer: renderer,
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
		RateLimit: ratelimit.Config{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Minute,
			IdleTTL:           time.Minute,
		},
		Ready: func(context.Context) error { return nil },
	}
	for _, m := range mutate {
		m(&deps)
	}

	env := &testEnv{srv: NewServer(":0", deps), app: app, blobs: blobs}
	t.Cleanup(func() { _ = env.srv.Shutdown(context.Background()) })

	w := env.do(t, "POST", "/api/login", `{"username":"admin","password":"admin123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	var resp loginResponse
	decode(t, w, &resp)
	env.token = resp.Token
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if e.token != "" {
		r.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

type resultBody struct {
	Kind    string          `json:"kind"`
	ID      string          `json:"id"`
	Action  string          `json:"action"`
	Created bool            `json:"created"`
	Record  json.RawMessage `json:"record"`
	Warning string          `json:"warning"`
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	expectStatus(t, env.do(t, "GET", "/healthz", ""), http.StatusOK)
	expectStatus(t, env.do(t, "GET", "/readyz", ""), http.StatusOK)

	failing := newTestEnv(t, func(d *Deps) {
		d.Ready = func(context.Context) error { return errors.New("db down") }
	})
	expectStatus(t, failing.do(t, "GET", "/readyz", ""), http.StatusServiceUnavailable)
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(t, "POST", "/api/login", `{"username":"admin","password":"nope"}`)
		expectStatus(t, w, http.StatusUnauthorized)
		var body ErrorBody
		decode(t, w, &body)
		if body.Error != auth.InvalidCredentialsMessage {
			t.Errorf("error = %q", body.Error)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/transactions", nil)
		w := httptest.NewRecorder()
		env.srv.Handler.ServeHTTP(w, r)
		expectStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("cookie is accepted", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/session", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: env.token})
		w := httptest.NewRecorder()
		env.srv.Handler.ServeHTTP(w, r)
		expectStatus(t, w, http.StatusOK)

		var resp sessionResponse
		decode(t, w, &resp)
		if resp.User.ID != core.SeedAdminID || resp.Session == nil || resp.Session.Username != "admin" {
			t.Errorf("session = %+v", resp)
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		expectStatus(t, env.do(t, "POST", "/api/logout", ""), http.StatusOK)
		if _, ok := env.app.Session(); ok {
			t.Error("session still active after logout")
		}
	})
}

func TestResponsesCarryTraceAndSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/api/years", "")
	expectStatus(t, w, http.StatusOK)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if m := env.srv.Metrics(); m.Trace.TotalRequests == 0 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/transactions/new", "")
	expectStatus(t, w, http.StatusOK)
	var draft map[string]string
	decode(t, w, &draft)
	if draft["type"] != "EXPENSE" || draft["category"] != "Biaya Iklan" || draft["date"] != "2025-08-17" {
		t.Errorf("defaults = %v", draft)
	}

	w = env.do(t, "POST", "/api/transactions",
		`{"type":"INCOME","category":"Omset Penjualan","amount":1000000,"date":"2025-08-01"}`)
	expectStatus(t, w, http.StatusCreated)
	var created resultBody
	decode(t, w, &created)

	w = env.do(t, "POST", "/api/transactions",
		`{"type":"EXPENSE","category":"Biaya Iklan","amount":"400.000","date":"2025-08-02","note":"Ads"}`)
	expectStatus(t, w, http.StatusCreated)

	w = env.do(t, "GET", "/api/dashboard", "")
	expectStatus(t, w, http.StatusOK)
	var ov report.Overview
	decode(t, w, &ov)
	want := core.Totals{Income: 1_000_000, Expense: 400_000, Profit: 600_000}
	if ov.Totals != want {
		t.Errorf("totals = %+v, want %+v", ov.Totals, want)
	}

	w = env.do(t, "PUT", "/api/transactions/"+created.ID, `{"amount":1200000,"note":"Logo"}`)
	expectStatus(t, w, http.StatusOK)
	got, _ := env.app.Transaction(created.ID)
	if got.Amount != 1_200_000 || got.Type != core.Income || got.Note != "Logo" {
		t.Errorf("updated = %+v", got)
	}

	expectStatus(t, env.do(t, "PUT", "/api/transactions/missing", `{"amount":1}`), http.StatusNotFound)
	expectStatus(t, env.do(t, "POST", "/api/transactions", `{"amount":"abc"}`), http.StatusBadRequest)
	expectStatus(t, env.do(t, "POST", "/api/transactions", `{"amount":{"x":1}}`), http.StatusBadRequest)

	expectStatus(t, env.do(t, "DELETE", "/api/transactions/"+created.ID, ""), http.StatusPreconditionRequired)
	expectStatus(t, env.do(t, "DELETE", "/api/transactions/"+created.ID+"?confirm=true", ""), http.StatusOK)
	if len(env.app.Transactions()) != 1 {
		t.Errorf("transactions = %d, want 1", len(env.app.Transactions()))
	}

	w = env.do(t, "GET", "/api/transactions?type=income", "")
	var incomes []core.Transaction
	decode(t, w, &incomes)
	if len(incomes) != 0 {
		t.Errorf("incomes = %v", incomes)
	}
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, "POST", "/api/categories", `{"name":"Biaya Iklan","type":"EXPENSE"}`), http.StatusConflict)
	expectStatus(t, env.do(t, "POST", "/api/categories", `{"name":"Biaya Iklan","type":"income"}`), http.StatusCreated)
	expectStatus(t, env.do(t, "POST", "/api/categories", `{"name":"  ","type":"INCOME"}`), http.StatusBadRequest)

	w := env.do(t, "GET", "/api/categories?type=INCOME", "")
	var cats []core.Category
	decode(t, w, &cats)
	if len(cats) != 3 || cats[2].Name != "Biaya Iklan" {
		t.Errorf("income categories = %+v", cats)
	}

	expectStatus(t, env.do(t, "DELETE", "/api/categories/1?confirm=true", ""), http.StatusOK)
	expectStatus(t, env.do(t, "DELETE", "/api/categories/1?confirm=true", ""), http.StatusNotFound)
}

func TestInvoices(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/invoices/new", "")
	var draft core.Invoice
	decode(t, w, &draft)
	if draft.InvoiceNumber != "CSTM001" || len(draft.Items) != 1 {
		t.Errorf("defaults = %+v", draft)
	}

	w = env.do(t, "POST", "/api/invoices", `{
		"customerName": "Budi",
		"ppn": "11",
		"paymentAmount": 500000,
		"isPaid": false,
		"subtotal": 1,
		"items": [
			{"description": "Logo", "quantity": "1", "amount": 1000000},
			{"description": "Kartu nama", "quantity": "2", "amount": 500000}
		]
	}`)
	expectStatus(t, w, http.StatusCreated)
	var res resultBody
	decode(t, w, &res)
	inv, _ := env.app.Invoice(res.ID)
	if inv.Subtotal != 1_500_000 || len(inv.Items) != 2 || inv.InvoiceNumber != "CSTM001" {
		t.Errorf("invoice = %+v", inv)
	}

	expectStatus(t, env.do(t, "PUT", "/api/invoices/"+res.ID, `{"items":[]}`), http.StatusBadRequest)
	expectStatus(t, env.do(t, "PUT", "/api/invoices/"+res.ID, `{"jobStatus":"SELESAI"}`), http.StatusOK)
	inv, _ = env.app.Invoice(res.ID)
	if inv.JobStatus != "SELESAI" || inv.Subtotal != 1_500_000 {
		t.Errorf("updated = %+v", inv)
	}

	w = env.do(t, "GET", "/print/invoices/"+res.ID, "")
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Budi") {
		t.Error("print page does not show the customer")
	}
	expectStatus(t, env.do(t, "GET", "/print/invoices/missing", ""), http.StatusNotFound)

	expectStatus(t, env.do(t, "POST", "/api/invoices/"+res.ID+"/payment-link", ""), http.StatusServiceUnavailable)
}

func TestPaymentLinkDisabled(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Payments = payment.NewLinks("", false, nil) })
	w := env.do(t, "POST", "/api/invoices", `{"customerName":"Sari","items":[{"amount":100}]}`)
	expectStatus(t, w, http.StatusCreated)
	var res resultBody
	decode(t, w, &res)

	expectStatus(t, env.do(t, "POST", "/api/invoices/"+res.ID+"/payment-link", ""), http.StatusServiceUnavailable)
	expectStatus(t, env.do(t, "POST", "/api/invoices/missing/payment-link", ""), http.StatusNotFound)
}

func TestBriefs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/briefs/new", "")
	var draft core.DesignBrief
	decode(t, w, &draft)
	if draft.PembuatBrief != "admin" || draft.PemilihanPaket != core.PackageGold || draft.Sliders.Style != 5 {
		t.Errorf("defaults = %+v", draft)
	}

	w = env.do(t, "POST", "/api/briefs", `{
		"namaLogo": "Kopi Senja",
		"pemilihanPaket": "platinum",
		"status": {"preview": true},
		"sliders": {"retro": 9},
		"kebutuhanLogo": ["Kemasan", "Kemasan", "Sosmed"],
		"referensi": ["data:image/png;base64,AAAA"]
	}`)
	expectStatus(t, w, http.StatusCreated)
	var res resultBody
	decode(t, w, &res)
	b, _ := env.app.Brief(res.ID)
	if !b.Status.Preview || b.Status.Finish || b.Sliders.Retro != 9 || b.Sliders.Style != 5 {
		t.Errorf("brief = %+v", b)
	}
	if len(b.KebutuhanLogo) != 2 || len(b.Referensi) != 1 || b.PemilihanPaket != core.PackagePlatinum {
		t.Errorf("brief = %+v", b)
	}

	tests := []struct {
		name string
		body string
	}{
		{"slider out of range", `{"sliders":{"style":11}}`},
		{"bad reference", `{"referensi":["https://example.com/a.png"]}`},
		{"unknown package", `{"pemilihanPaket":"BRONZE"}`},
		{"unknown field", `{"warna":"merah"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, env.do(t, "PUT", "/api/briefs/"+res.ID, tt.body), http.StatusBadRequest)
		})
	}

	w = env.do(t, "GET", "/print/briefs/"+res.ID, "")
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Kopi Senja") {
		t.Error("print page does not show the logo name")
	}

	expectStatus(t, env.do(t, "DELETE", "/api/briefs/"+res.ID+"?confirm=true", ""), http.StatusOK)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/users", `{"username":"rina","password":"rahasia","role":"user"}`)
	expectStatus(t, w, http.StatusCreated)
	if strings.Contains(w.Body.String(), "passwordHash") {
		t.Error("response leaks the password hash")
	}
	var res resultBody
	decode(t, w, &res)

	expectStatus(t, env.do(t, "POST", "/api/users", `{"username":"rina","password":"x"}`), http.StatusConflict)
	expectStatus(t, env.do(t, "POST", "/api/users", `{"username":"tono","password":"x","photo":"not-a-data-url"}`), http.StatusBadRequest)

	w = env.do(t, "GET", "/api/users", "")
	expectStatus(t, w, http.StatusOK)
	if strings.Contains(w.Body.String(), "passwordHash") {
		t.Error("listing leaks password hashes")
	}
	var users []UserView
	decode(t, w, &users)
	if len(users) != 2 {
		t.Errorf("users = %+v", users)
	}

	expectStatus(t, env.do(t, "DELETE", "/api/users/"+core.SeedAdminID+"?confirm=true", ""), http.StatusForbidden)
	expectStatus(t, env.do(t, "DELETE", "/api/users/"+res.ID+"?confirm=true", ""), http.StatusOK)
}

func TestDeletedUserLosesAccess(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token

	w := env.do(t, "POST", "/api/users", `{"username":"rina","password":"rahasia","role":"admin"}`)
	expectStatus(t, w, http.StatusCreated)
	var created resultBody
	decode(t, w, &created)

	env.token = ""
	w = env.do(t, "POST", "/api/login", `{"username":"rina","password":"rahasia"}`)
	expectStatus(t, w, http.StatusOK)
	var login loginResponse
	decode(t, w, &login)
	rinaToken := login.Token

	env.token = rinaToken
	expectStatus(t, env.do(t, "GET", "/api/transactions", ""), http.StatusOK)

	env.token = adminToken
	expectStatus(t, env.do(t, "DELETE", "/api/users/"+created.ID+"?confirm=true", ""), http.StatusOK)

	env.token = rinaToken
	tests := []struct {
		method, path, body string
	}{
		{"GET", "/api/transactions", ""},
		{"POST", "/api/categories", `{"name":"Biaya Server","type":"EXPENSE"}`},
		{"POST", "/api/users", `{"username":"backdoor","password":"x","role":"admin"}`},
		{"GET", "/api/session", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			expectStatus(t, env.do(t, tt.method, tt.path, tt.body), http.StatusUnauthorized)
		})
	}

	env.token = adminToken
	w = env.do(t, "GET", "/api/users", "")
	if strings.Contains(w.Body.String(), "backdoor") {
		t.Error("revoked token created a user")
	}
}

func TestReports(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, "POST", "/api/transactions",
		`{"type":"INCOME","category":"Omset Penjualan","amount":250000,"date":"2024-02-29"}`), http.StatusCreated)

	tests := []struct {
		name        string
		query       string
		wantBuckets int
		wantIncome  int64
	}{
		{"leap february", "?mode=monthly&year=2024&month=2", 29, 250_000},
		{"yearly", "?mode=yearly&year=2024", 12, 250_000},
		{"empty year", "?mode=yearly&year=2023", 12, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "GET", "/api/reports"+tt.query, "")
			expectStatus(t, w, http.StatusOK)
			var summary report.PeriodSummary
			decode(t, w, &summary)
			if len(summary.Buckets) != tt.wantBuckets || summary.Summary.Income != tt.wantIncome {
				t.Errorf("got %d buckets, income %d", len(summary.Buckets), summary.Summary.Income)
			}
		})
	}

	expectStatus(t, env.do(t, "GET", "/api/reports?mode=monthly&month=0", ""), http.StatusBadRequest)

	w := env.do(t, "GET", "/api/years", "")
	var years []int
	decode(t, w, &years)
	if len(years) != 1 || years[0] != 2024 {
		t.Errorf("years = %v", years)
	}
}

func TestInsight(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/insight?wait=true", "")
	expectStatus(t, w, http.StatusOK)
	var got insight.Insight
	decode(t, w, &got)
	if got.Text != insight.NotEnoughData {
		t.Errorf("text = %q, want %q", got.Text, insight.NotEnoughData)
	}

	expectStatus(t, env.do(t, "POST", "/api/transactions",
		`{"type":"INCOME","category":"Omset Penjualan","amount":1000,"date":"2025-08-01"}`), http.StatusCreated)

	w = env.do(t, "POST", "/api/insight?wait=true", "")
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &got)
	if got.Text != "## Skor: 80" {
		t.Errorf("text = %q", got.Text)
	}

	w = env.do(t, "GET", "/api/insight", "")
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &got)
	if got.Text != "## Skor: 80" {
		t.Errorf("latest = %q", got.Text)
	}

	disabled := newTestEnv(t, func(d *Deps) { d.Auditor = nil })
	expectStatus(t, disabled.do(t, "GET", "/api/insight", ""), http.StatusServiceUnavailable)
}

func TestInsightRunsOnFirstLook(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, "POST", "/api/transactions",
		`{"type":"INCOME","category":"Omset Penjualan","amount":1000,"date":"2025-08-01"}`), http.StatusCreated)

	var got insight.Insight
	deadline := time.Now().Add(2 * time.Second)
	for {
		w := env.do(t, "GET", "/api/insight", "")
		expectStatus(t, w, http.StatusOK)
		decode(t, w, &got)
		if got.Text != "" || time.Now().After(deadline) {
			break
		}
		if !got.Running {
			t.Fatalf("no analysis started: %+v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got.Text != "## Skor: 80" {
		t.Errorf("text = %q, want the provider answer", got.Text)
	}
}

func TestPersistenceFailureIsAWarning(t *testing.T) {
	env := newTestEnv(t)
	env.blobs.FailWrites(errors.New("quota exceeded"))

	w := env.do(t, "POST", "/api/categories", `{"name":"Hibah","type":"INCOME"}`)
	expectStatus(t, w, http.StatusCreated)
	var res resultBody
	decode(t, w, &res)
	if res.Warning == "" {
		t.Error("expected a warning")
	}
	if len(env.app.CategoriesOf(core.Income)) != 3 {
		t.Error("category should be kept in memory")
	}
}
