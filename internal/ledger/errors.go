package ledger

import (
	"errors"

	"grledger/internal/auth"
	"grledger/internal/core"
	"grledger/internal/media"
	"grledger/internal/store"
)

var (
	ErrInvalid              = errors.New("invalid record")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrDuplicateCategory    = errors.New("category already exists")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrProtectedRecord      = errors.New("record is protected")
	ErrNotFound             = store.ErrNotFound
)

// Message returns the text shown to the dashboard user for err, or "" when
// err has no dedicated wording.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateCategory):
		return "Kategori sudah ada!"
	case errors.Is(err, ErrDuplicateUsername):
		return "Username sudah ada!"
	case errors.Is(err, ErrProtectedRecord):
		return "Akun admin utama tidak dapat dihapus!"
	case errors.Is(err, media.ErrTooLarge):
		return "Ukuran file terlalu besar. Maksimal 1MB."
	case errors.Is(err, auth.ErrInvalidCredentials):
		return auth.InvalidCredentialsMessage
	case errors.Is(err, core.ErrEmptyName):
		return "Nama kategori wajib diisi."
	default:
		return ""
	}
}
