package domain

import (
	"errors"
	"testing"
)

func TestFetchError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("wraps cause", func(t *testing.T) {
		err := NewFetchError("request", baseErr)

		if err.Error() != "fetch request: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "fetch request: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}
	})

	t.Run("IsFetch helper", func(t *testing.T) {
		fetch := NewFetchError("decode", baseErr)
		plain := errors.New("plain error")

		if !IsFetch(fetch) {
			t.Error("IsFetch should return true for FetchError")
		}

		if IsFetch(plain) {
			t.Error("IsFetch should return false for plain error")
		}

		if !IsFetch(NewFetchError("status", errors.New("wrapped deeper"))) {
			t.Error("IsFetch should match through wrapping")
		}
	})

	t.Run("schema op carries missing field", func(t *testing.T) {
		err := NewFetchError("schema", ErrMissingField)

		if !errors.Is(err, ErrMissingField) {
			t.Error("Expected schema error to wrap ErrMissingField")
		}
	})
}

func TestStoreError(t *testing.T) {
	baseErr := errors.New("disk full")
	err := NewStoreError("write", baseErr)

	expected := "store write: disk full"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}

	if !errors.Is(err, baseErr) {
		t.Error("Expected error to wrap baseErr")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "symbol", Err: ErrEmptySymbol}

	expected := "invalid symbol: empty symbol"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}

	t.Run("IsValidation helper", func(t *testing.T) {
		if !IsValidation(err) {
			t.Error("IsValidation should return true for ValidationError")
		}

		if IsValidation(errors.New("plain error")) {
			t.Error("IsValidation should return false for plain error")
		}

		if !errors.Is(err, ErrEmptySymbol) {
			t.Error("Expected validation error to wrap sentinel")
		}
	})
}
