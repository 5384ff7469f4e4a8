// Package storage persists the ledger's collections as opaque JSON blobs,
// one per key. Each write replaces the whole blob.
package storage

import (
	"context"
	"errors"
)

// Blob keys. They match the names the dashboard has always used so that
// exported data can be imported unchanged.
const (
	KeyTransactions = "fintrack_data"
	KeyCategories   = "gr_categories"
	KeyInvoices     = "gr_invoices"
	KeyBriefs       = "gr_briefs"
	KeyUsers        = "gr_users"
	KeySession      = "gr_current_user"
)

// Keys lists every blob key in load order.
var Keys = []string{KeyTransactions, KeyCategories, KeyInvoices, KeyBriefs, KeyUsers, KeySession}

// ErrQuotaExceeded is returned by backends that refuse a write for size.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// BlobStore is a key to bytes store.
type BlobStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
