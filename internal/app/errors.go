package app

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// This message is intended to be shown to end users and should not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	// ErrUserDisabled is returned when an account is disabled.
	// Handlers should generally NOT expose this to clients to avoid account enumeration.
	ErrUserDisabled = errors.New("user disabled")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrEmailAlreadyExists       = errors.New("email already exists")
	ErrEmailRequired            = errors.New("email required")

	// ErrUnauthorized is returned when the caller does not own the record.
	ErrUnauthorized = errors.New("not authorized")

	// ErrFarmerOnly is returned when an operation requires a farmer account.
	ErrFarmerOnly = errors.New("farmer account required")

	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingAsset is returned when a record that requires an image has
	// neither a new upload nor a prior stored one.
	ErrMissingAsset = errors.New("an image is required")
)

// ValidationError rejects a single request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalidField(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AssetUploadError wraps an object-store failure during the upload phase.
// Nothing has been persisted when it is returned.
type AssetUploadError struct {
	Err error
}

func (e *AssetUploadError) Error() string {
	return fmt.Sprintf("upload asset: %v", e.Err)
}

func (e *AssetUploadError) Unwrap() error { return e.Err }

// CommitError wraps a store failure after the asset was already uploaded.
// The uploaded object is intentionally left in place.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit record: %v", e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
