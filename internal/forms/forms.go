// Package forms holds the editing state machines for transactions, invoices
// and design briefs. Each controller stages a draft, applies single-field
// updates and turns the draft into a finalized record on Submit.
package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"grledger/internal/core"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnknownField = errors.New("unknown field")
	ErrLastItem     = errors.New("an invoice keeps at least one item")
	ErrUnknownItem  = errors.New("unknown invoice item")
	ErrBadReference = errors.New("reference must be an image data URL")
)

// ValidationError reports the first field that failed. It matches both
// ErrValidation and the wrapped cause with errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldCauses maps draft fields onto the domain error reported for them.
var fieldCauses = map[string]error{
	"amount":        core.ErrInvalidAmount,
	"paymentAmount": core.ErrInvalidAmount,
	"ppn":           core.ErrInvalidAmount,
	"date":          core.ErrInvalidDate,
	"invoiceDate":   core.ErrInvalidDate,
	"purchaseDate":  core.ErrInvalidDate,
	"type":          core.ErrInvalidType,
}

// check runs struct validation and converts the first failure.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	cause, ok := fieldCauses[fe.Field()]
	if !ok {
		cause = fmt.Errorf("failed %q rule", fe.Tag())
	}
	return invalid(fe.Field(), cause)
}

type settings struct {
	now   func() time.Time
	loc   *time.Location
	newID core.IDFunc
}

// Option configures a controller.
type Option func(*settings)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithLocation sets the zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDs replaces the UUID generator.
func WithIDs(f core.IDFunc) Option {
	return func(s *settings) { s.newID = f }
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now, loc: time.Local, newID: core.NewID}
	for _, o := range opts {
		o(&s)
	}
	return s
}

func (s settings) today() string {
	return s.now().In(s.loc).Format(core.DateLayout)
}

// Updater is implemented by every controller.
type Updater interface {
	Update(field, value string) error
}

// Apply feeds values into u. Keys listed in first go before the rest, which
// follow in sorted order, so that dependent fields settle deterministically.
func Apply(u Updater, values map[string]string, first ...string) error {
	done := make(map[string]bool, len(first))
	for _, k := range first {
		if v, ok := values[k]; ok {
			if err := u.Update(k, v); err != nil {
				return err
			}
		}
		done[k] = true
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		if !done[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := u.Update(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Stringify turns decoded JSON scalars into form values. Decode with
// json.Decoder.UseNumber so numbers keep their literal form.
func Stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}
