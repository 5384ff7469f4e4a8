package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"grledger/internal/core"
	"grledger/internal/storage"
)

// Records groups every collection the ledger keeps.
type Records struct {
	Transactions *Collection[core.Transaction]
	Categories   *Collection[core.Category]
	Invoices     *Collection[core.Invoice]
	Briefs       *Collection[core.DesignBrief]
	Users        *Collection[core.User]
	Session      *Value[core.Session]
}

func NewRecords(blobs storage.BlobStore) *Records {
	return &Records{
		Transactions: NewCollection(blobs, storage.KeyTransactions, func(t core.Transaction) string { return t.ID }, nil),
		Categories:   NewCollection(blobs, storage.KeyCategories, func(c core.Category) string { return c.ID }, core.DefaultCategories),
		Invoices:     NewCollection(blobs, storage.KeyInvoices, func(i core.Invoice) string { return i.ID }, nil),
		Briefs:       NewCollection(blobs, storage.KeyBriefs, func(b core.DesignBrief) string { return b.ID }, nil),
		Users:        NewCollection(blobs, storage.KeyUsers, func(u core.User) string { return u.ID }, nil),
		Session:      NewValue[core.Session](blobs, storage.KeySession),
	}
}

type loader interface {
	Load(ctx context.Context) error
}

func (r *Records) byKey() map[string]loader {
	return map[string]loader{
		storage.KeyTransactions: r.Transactions,
		storage.KeyCategories:   r.Categories,
		storage.KeyInvoices:     r.Invoices,
		storage.KeyBriefs:       r.Briefs,
		storage.KeyUsers:        r.Users,
		storage.KeySession:      r.Session,
	}
}

// LoadAll reads every blob concurrently.
func (r *Records) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range r.byKey() {
		g.Go(func() error { return l.Load(ctx) })
	}
	return g.Wait()
}

// LoadKey reloads the collection stored under key. Unknown keys are ignored.
func (r *Records) LoadKey(ctx context.Context, key string) error {
	l, ok := r.byKey()[key]
	if !ok {
		return nil
	}
	return l.Load(ctx)
}
