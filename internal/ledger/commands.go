package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grledger/internal/amqp"
	"grledger/internal/auth"
	"grledger/internal/core"
	"grledger/internal/forms"
	"grledger/internal/media"
	"grledger/internal/store"
)

const kindSession = "session"

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}

// upsert stores rec in c and fills in the result. The diff against the
// previous version is best effort.
func upsert[T any](ctx context.Context, c *store.Collection[T], kind, id string, rec T) (Result, error) {
	res := Result{Kind: kind, ID: id, Action: amqp.ActionUpsert, Record: rec}
	if before, ok := c.Get(id); ok {
		if d, err := forms.ChangeSummary(before, rec); err == nil {
			res.diff = d
		}
	}
	created, err := c.Upsert(ctx, rec)
	res.Created = created
	return res, err
}

func remove[T any](ctx context.Context, c *store.Collection[T], kind, id string, confirmed bool) (Result, error) {
	res := Result{Kind: kind, ID: id, Action: amqp.ActionRemove}
	if _, ok := c.Get(id); !ok {
		return res, ErrNotFound
	}
	if !confirmed {
		return res, ErrConfirmationRequired
	}
	removed, err := c.Remove(ctx, id)
	res.Record = removed
	return res, err
}

// SaveTransaction creates or replaces a transaction.
type SaveTransaction struct {
	Transaction core.Transaction
}

func (SaveTransaction) Operation() string { return "save_transaction" }

func (c SaveTransaction) execute(ctx context.Context, a *App) (Result, error) {
	if err := c.Transaction.Validate(); err != nil {
		return Result{Kind: amqp.KindTransaction, ID: c.Transaction.ID}, invalid(err)
	}
	return upsert(ctx, a.rec.Transactions, amqp.KindTransaction, c.Transaction.ID, c.Transaction)
}

type DeleteTransaction struct {
	ID        string
	Confirmed bool
}

func (DeleteTransaction) Operation() string { return "delete_transaction" }

func (c DeleteTransaction) execute(ctx context.Context, a *App) (Result, error) {
	return remove(ctx, a.rec.Transactions, amqp.KindTransaction, c.ID, c.Confirmed)
}

// AddCategory appends a category. Names are unique per type, ignoring case.
type AddCategory struct {
	Name string
	Type core.TransactionType
}

func (AddCategory) Operation() string { return "add_category" }

func (c AddCategory) execute(ctx context.Context, a *App) (Result, error) {
	res := Result{Kind: amqp.KindCategory, Action: amqp.ActionUpsert}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return res, invalid(core.ErrEmptyName)
	}
	if !c.Type.Valid() {
		return res, invalid(core.ErrInvalidType)
	}
	for _, existing := range a.rec.Categories.List() {
		if existing.Matches(name, c.Type) {
			return res, ErrDuplicateCategory
		}
	}
	cat := core.Category{ID: a.newID(), Name: name, Type: c.Type}
	return upsert(ctx, a.rec.Categories, amqp.KindCategory, cat.ID, cat)
}

// DeleteCategory removes a category. Transactions that use its name keep it.
type DeleteCategory struct {
	ID        string
	Confirmed bool
}

func (DeleteCategory) Operation() string { return "delete_category" }

func (c DeleteCategory) execute(ctx context.Context, a *App) (Result, error) {
	return remove(ctx, a.rec.Categories, amqp.KindCategory, c.ID, c.Confirmed)
}

type SaveInvoice struct {
	Invoice core.Invoice
}

func (SaveInvoice) Operation() string { return "save_invoice" }

func (c SaveInvoice) execute(ctx context.Context, a *App) (Result, error) {
	inv := c.Invoice
	if err := inv.Validate(); err != nil {
		return Result{Kind: amqp.KindInvoice, ID: inv.ID}, invalid(err)
	}
	inv.Subtotal = core.SumItems(inv.Items)
	return upsert(ctx, a.rec.Invoices, amqp.KindInvoice, inv.ID, inv)
}

type DeleteInvoice struct {
	ID        string
	Confirmed bool
}

func (DeleteInvoice) Operation() string { return "delete_invoice" }

func (c DeleteInvoice) execute(ctx context.Context, a *App) (Result, error) {
	return remove(ctx, a.rec.Invoices, amqp.KindInvoice, c.ID, c.Confirmed)
}

// SetPaymentURL attaches a payment link to an existing invoice.
type SetPaymentURL struct {
	InvoiceID string
	URL       string
}

func (SetPaymentURL) Operation() string { return "set_payment_url" }

func (c SetPaymentURL) execute(ctx context.Context, a *App) (Result, error) {
	inv, ok := a.rec.Invoices.Get(c.InvoiceID)
	if !ok {
		return Result{Kind: amqp.KindInvoice, ID: c.InvoiceID}, ErrNotFound
	}
	inv.PaymentURL = c.URL
	return upsert(ctx, a.rec.Invoices, amqp.KindInvoice, inv.ID, inv)
}

// SaveBrief creates or replaces a design brief. Reference images are
// normalized before they are stored.
type SaveBrief struct {
	Brief core.DesignBrief
}

func (SaveBrief) Operation() string { return "save_brief" }

func (c SaveBrief) execute(ctx context.Context, a *App) (Result, error) {
	b := c.Brief
	res := Result{Kind: amqp.KindBrief, ID: b.ID}
	if err := b.Validate(); err != nil {
		return res, invalid(err)
	}
	refs := make([]string, 0, len(b.Referensi))
	for i, ref := range b.Referensi {
		norm, err := media.Normalize(ref, 0)
		switch {
		case errors.Is(err, media.ErrUnreadable):
			// formats the decoder does not know are stored as given
			norm = ref
		case err != nil:
			return res, invalid(fmt.Errorf("referensi[%d]: %w", i, err))
		}
		refs = append(refs, norm)
	}
	b.Referensi = refs
	if b.KebutuhanLogo == nil {
		b.KebutuhanLogo = []string{}
	}
	return upsert(ctx, a.rec.Briefs, amqp.KindBrief, b.ID, b)
}

type DeleteBrief struct {
	ID        string
	Confirmed bool
}

func (DeleteBrief) Operation() string { return "delete_brief" }

func (c DeleteBrief) execute(ctx context.Context, a *App) (Result, error) {
	return remove(ctx, a.rec.Briefs, amqp.KindBrief, c.ID, c.Confirmed)
}

// AddUser registers a dashboard user. The password is stored as a bcrypt
// hash only.
type AddUser struct {
	Username string
	Password string
	Role     core.Role
	Photo    string
}

func (AddUser) Operation() string { return "add_user" }

func (c AddUser) execute(ctx context.Context, a *App) (Result, error) {
	res := Result{Kind: amqp.KindUser, Action: amqp.ActionUpsert}
	username := strings.TrimSpace(c.Username)
	if username == "" {
		return res, invalid(core.ErrEmptyUsername)
	}
	if c.Password == "" {
		return res, invalid(auth.ErrEmptyPassword)
	}
	for _, u := range a.rec.Users.List() {
		if u.Username == username {
			return res, ErrDuplicateUsername
		}
	}

	role := c.Role
	if role == "" {
		role = core.RoleUser
	}
	if !role.Valid() {
		return res, invalid(core.ErrInvalidRole)
	}

	var photo string
	if c.Photo != "" {
		p, err := media.Normalize(c.Photo, a.photoLimit)
		if err != nil {
			return res, invalid(err)
		}
		photo = p
	}

	hash, err := auth.HashPassword(c.Password, a.cost)
	if err != nil {
		return res, err
	}
	u := core.User{
		ID:           a.newID(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Photo:        photo,
		CreatedAt:    a.now().UTC(),
	}
	return upsert(ctx, a.rec.Users, amqp.KindUser, u.ID, u)
}

// DeleteUser removes a user. The seed administrator is always refused.
type DeleteUser struct {
	ID        string
	Confirmed bool
}

func (DeleteUser) Operation() string { return "delete_user" }

func (c DeleteUser) execute(ctx context.Context, a *App) (Result, error) {
	if c.ID == core.SeedAdminID {
		return Result{Kind: amqp.KindUser, ID: c.ID, Action: amqp.ActionRemove}, ErrProtectedRecord
	}
	return remove(ctx, a.rec.Users, amqp.KindUser, c.ID, c.Confirmed)
}

// StartSession records u as the signed-in user.
type StartSession struct {
	User core.User
}

func (StartSession) Operation() string { return "start_session" }

func (c StartSession) execute(ctx context.Context, a *App) (Result, error) {
	sess := core.SessionFor(c.User, a.now().UTC())
	res := Result{Kind: kindSession, ID: c.User.ID, Action: amqp.ActionUpsert, Record: sess}
	return res, a.rec.Session.Set(ctx, sess)
}

type EndSession struct{}

func (EndSession) Operation() string { return "end_session" }

func (EndSession) execute(ctx context.Context, a *App) (Result, error) {
	res := Result{Kind: kindSession, Action: amqp.ActionRemove}
	if sess, ok := a.rec.Session.Get(); ok {
		res.ID = sess.UserID
	}
	return res, a.rec.Session.Clear(ctx)
}
