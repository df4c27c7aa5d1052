package domain

import "errors"

// FetchError reports a failed market-data fetch: transport failure,
// non-success status, or a payload that does not match the expected schema.
// It is always recovered locally; the dashboard falls back to stored records.
type FetchError struct {
	Op  string // Stage that failed: "request", "status", "decode", "schema"
	Err error
}

func (e *FetchError) Error() string {
	return "fetch " + e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err with the stage it occurred in.
func NewFetchError(op string, err error) *FetchError {
	return &FetchError{Op: op, Err: err}
}

// StoreError reports a failed write to the persisted entry file.
// The file is left in its previous state (no partial append).
type StoreError struct {
	Op  string // "marshal", "write", "rename"
	Err error
}

func (e *StoreError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with the stage it occurred in.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// ValidationError reports a malformed user-submitted record. It is surfaced
// to the submitting form; the table and the persisted file stay unchanged.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation checks whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsFetch checks whether err is (or wraps) a FetchError.
func IsFetch(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

var (
	// ErrEmptySymbol is returned when a record has no symbol after trimming.
	ErrEmptySymbol = errors.New("empty symbol")

	// ErrNegativeAmount is returned when a price or volume is below zero.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrMissingField is returned when the upstream payload omits a required field.
	ErrMissingField = errors.New("missing field")

	// ErrBadCredentials is returned when the login form does not match the configured pair.
	ErrBadCredentials = errors.New("invalid credentials")
)
