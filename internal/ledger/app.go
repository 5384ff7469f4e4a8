// Package ledger owns the application state. Every change goes through
// Dispatch, which applies one command, persists the touched collection and
// announces the change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"grledger/internal/amqp"
	"grledger/internal/auth"
	"grledger/internal/core"
	"grledger/internal/log"
	"grledger/internal/report"
	"grledger/internal/storage"
	"grledger/internal/store"
)

// EventPublisher receives a change notice after every persisted mutation.
type EventPublisher interface {
	PublishRecordChanged(ctx context.Context, msg *amqp.RecordChanged) error
}

type Options struct {
	Logger        *log.Logger
	Publisher     EventPublisher
	Now           func() time.Time
	NewID         core.IDFunc
	BcryptCost    int
	MaxPhotoBytes int
	AdminPassword string
	// Console receives the generated admin password, outside the log
	// stream. Defaults to os.Stderr.
	Console io.Writer
}

// State is a point-in-time copy of everything the ledger holds.
type State struct {
	Transactions []core.Transaction `json:"transactions"`
	Categories   []core.Category    `json:"categories"`
	Invoices     []core.Invoice     `json:"invoices"`
	Briefs       []core.DesignBrief `json:"briefs"`
	Users        []core.User        `json:"users"`
	Session      *core.Session      `json:"session,omitempty"`
}

type App struct {
	mu  sync.Mutex
	rec *store.Records

	logger     *log.Logger
	pub        EventPublisher
	now        func() time.Time
	newID      core.IDFunc
	cost       int
	photoLimit int
	adminPass  string
	console    io.Writer
}

func New(blobs storage.BlobStore, opts Options) *App {
	a := &App{
		rec:        store.NewRecords(blobs),
		logger:     opts.Logger,
		pub:        opts.Publisher,
		now:        opts.Now,
		newID:      opts.NewID,
		cost:       opts.BcryptCost,
		photoLimit: opts.MaxPhotoBytes,
		adminPass:  opts.AdminPassword,
		console:    opts.Console,
	}
	if a.console == nil {
		a.console = os.Stderr
	}
	if a.logger == nil {
		a.logger = log.Discard()
	}
	a.logger = a.logger.WithComponent(log.ComponentLedger)
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = core.NewID
	}
	if a.photoLimit == 0 {
		a.photoLimit = 1 << 20
	}
	return a
}

// Load reads every collection and seeds the administrator when the user
// directory is empty.
func (a *App) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.rec.LoadAll(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if a.rec.Users.Len() > 0 {
		return a.hashLegacyPasswords(ctx)
	}

	admin, password, err := auth.SeedAdmin(a.adminPass, a.cost, a.now())
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if _, err := a.rec.Users.Upsert(ctx, admin); err != nil && !store.IsPersistError(err) {
		return err
	} else if err != nil {
		a.logger.Warn("Seed admin not persisted", log.FieldError, err)
	}
	if a.adminPass == "" {
		a.logger.Warn("Created admin account with a generated password, set ADMIN_PASSWORD to choose one",
			log.FieldUsername, admin.Username)
		fmt.Fprintf(a.console, "Generated password for %q: %s\n", admin.Username, password)
	} else {
		a.logger.Info("Created admin account", log.FieldUsername, admin.Username)
	}
	return nil
}

// hashLegacyPasswords replaces clear-text passwords kept by old directories
// with bcrypt hashes and rewrites the users blob.
func (a *App) hashLegacyPasswords(ctx context.Context) error {
	users := a.rec.Users.List()
	upgraded := 0
	for i := range users {
		plain := users[i].TakeLegacyPassword()
		if plain == "" || users[i].PasswordHash != "" {
			continue
		}
		hash, err := auth.HashPassword(plain, a.cost)
		if err != nil {
			return fmt.Errorf("hash password of %s: %w", users[i].Username, err)
		}
		users[i].PasswordHash = hash
		upgraded++
	}
	if upgraded == 0 {
		return nil
	}
	if err := a.rec.Users.Replace(ctx, users); err != nil {
		if !store.IsPersistError(err) {
			return err
		}
		a.logger.Warn("Hashed passwords not persisted", log.FieldError, err)
	}
	a.logger.Info("Hashed clear-text passwords", log.FieldCount, upgraded)
	return nil
}

// Reload re-reads the collection stored under key, typically after another
// program edited it. On failure the current state is kept.
func (a *App) Reload(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.rec.LoadKey(ctx, key); err != nil {
		a.logger.Warn("Reload failed, keeping current state", log.FieldBlobKey, key, log.FieldError, err)
		return err
	}
	a.logger.Info("Reloaded collection", log.FieldBlobKey, key)
	if key == storage.KeyUsers {
		return a.hashLegacyPasswords(ctx)
	}
	return nil
}

// Snapshot copies the whole state.
func (a *App) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := State{
		Transactions: a.rec.Transactions.List(),
		Categories:   a.rec.Categories.List(),
		Invoices:     a.rec.Invoices.List(),
		Briefs:       a.rec.Briefs.List(),
		Users:        a.rec.Users.List(),
	}
	if sess, ok := a.rec.Session.Get(); ok {
		s.Session = &sess
	}
	return s
}

func (a *App) Transactions() []core.Transaction { return a.rec.Transactions.List() }
func (a *App) Categories() []core.Category      { return a.rec.Categories.List() }
func (a *App) Invoices() []core.Invoice         { return a.rec.Invoices.List() }
func (a *App) Briefs() []core.DesignBrief       { return a.rec.Briefs.List() }
func (a *App) Users() []core.User               { return a.rec.Users.List() }

func (a *App) CategoriesOf(typ core.TransactionType) []core.Category {
	return core.CategoriesOf(a.rec.Categories.List(), typ)
}

func (a *App) Transaction(id string) (core.Transaction, bool) { return a.rec.Transactions.Get(id) }
func (a *App) Invoice(id string) (core.Invoice, bool)         { return a.rec.Invoices.Get(id) }
func (a *App) Brief(id string) (core.DesignBrief, bool)       { return a.rec.Briefs.Get(id) }
func (a *App) User(id string) (core.User, bool)               { return a.rec.Users.Get(id) }

// Session returns the signed-in user's session, if any.
func (a *App) Session() (core.Session, bool) { return a.rec.Session.Get() }

// Dashboard aggregates the current transactions.
func (a *App) Dashboard() report.Overview {
	return report.BuildOverview(a.rec.Transactions.List(), a.rec.Categories.List())
}

// Report builds the bucket series for q.
func (a *App) Report(q report.Query) (report.PeriodSummary, error) {
	return report.BuildPeriod(a.rec.Transactions.List(), q)
}

// Years lists the years that have transactions, newest first.
func (a *App) Years() []int {
	return report.Years(a.rec.Transactions.List(), a.now())
}

// Result describes what a command did.
type Result struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Action  string `json:"action"`
	Created bool   `json:"created,omitempty"`
	Record  any    `json:"record,omitempty"`
	// Warning is set when the change is live in memory but was not saved.
	Warning string `json:"warning,omitempty"`

	diff string
}

// Command is one state change.
type Command interface {
	Operation() string
	execute(ctx context.Context, a *App) (Result, error)
}

// Dispatch applies cmd. Persistence failures do not fail the command: the
// result carries a warning instead.
func (a *App) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	a.mu.Lock()
	res, err := cmd.execute(ctx, a)
	a.mu.Unlock()

	logger := a.logger.With(log.FieldOperation, cmd.Operation())
	if err != nil && store.IsPersistError(err) {
		res.Warning = err.Error()
		logger.Warn("Change kept in memory but not persisted",
			log.FieldKind, res.Kind,
			log.FieldRecordID, res.ID,
			log.FieldError, err)
		return res, nil
	}
	if err != nil {
		if !isExpected(err) {
			logger.Error("Command failed", log.FieldError, err)
		}
		return res, err
	}

	logger.Info("Command applied",
		log.FieldKind, res.Kind,
		log.FieldRecordID, res.ID)
	if res.diff != "" {
		logger.Debug("Record changed", log.FieldDiff, res.diff)
	}
	a.publish(ctx, res)
	return res, nil
}

func (a *App) publish(ctx context.Context, res Result) {
	if a.pub == nil || res.Kind == "" || res.Kind == kindSession {
		return
	}
	msg := amqp.NewRecordChanged(res.Kind, res.ID, res.Action, res.diff)
	if err := a.pub.PublishRecordChanged(ctx, msg); err != nil {
		a.logger.Warn("Failed to publish change",
			log.FieldKind, res.Kind,
			log.FieldRecordID, res.ID,
			log.FieldError, err)
	}
}

func isExpected(err error) bool {
	for _, target := range []error{
		ErrConfirmationRequired, ErrDuplicateCategory, ErrDuplicateUsername,
		ErrProtectedRecord, ErrNotFound, ErrInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
