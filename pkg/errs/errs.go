// Package errs classifies wallet failures so callers can pattern-match
// outcomes instead of catching generic errors.
//
// The taxonomy:
//   - UserDeclined: a confirmation was rejected; never retried.
//   - Validation: malformed instruction or parameter, caught before any
//     network call; never retried.
//   - Verification: the operator probe did not return Verified; the account
//     is unusable until a correct key is supplied.
//   - NetworkRejection: the ledger returned a non-fee failure status for a
//     real operation; surfaced with the status, not retried automatically.
//   - Transient: transport-level failure; safe to retry only if the
//     transaction was never submitted.
//   - Invariant: a logic defect (unbalanced transfer, probe success);
//     always fatal, never downgraded.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Class is the failure category.
type Class uint8

const (
	// ClassUnknown is the zero value for unclassified errors.
	ClassUnknown Class = iota
	// ClassUserDeclined marks a rejected confirmation.
	ClassUserDeclined
	// ClassValidation marks pre-flight input errors.
	ClassValidation
	// ClassVerification marks operator probe failures.
	ClassVerification
	// ClassNetworkRejection marks non-fee ledger rejections.
	ClassNetworkRejection
	// ClassTransient marks transport-level availability failures.
	ClassTransient
	// ClassInvariant marks logic defects.
	ClassInvariant
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassUserDeclined:
		return "user_declined"
	case ClassValidation:
		return "validation"
	case ClassVerification:
		return "verification"
	case ClassNetworkRejection:
		return "network_rejection"
	case ClassTransient:
		return "transient"
	case ClassInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is a classified wallet failure. Op names the failing operation;
// Account, Asset, and Status identify the call well enough to reproduce it.
// Secret key material must never be placed in any field.
type Error struct {
	Class   Class
	Op      string
	Account string
	Asset   string
	Status  string
	Err     error
}

// Error formats the failure with its class, operation, and identifiers.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Class.String())
	if e.Op != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Op)
	}
	if e.Account != "" {
		fmt.Fprintf(&sb, " account=%s", e.Account)
	}
	if e.Asset != "" {
		fmt.Fprintf(&sb, " asset=%s", e.Asset)
	}
	if e.Status != "" {
		fmt.Fprintf(&sb, " status=%s", e.Status)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error from a message.
func New(class Class, op, format string, args ...any) *Error {
	return &Error{Class: class, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies an existing error. Returns nil if err is nil.
func Wrap(class Class, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Class: class, Op: op, Err: err}
}

// WithAccount attaches the account identifier.
func (e *Error) WithAccount(account string) *Error {
	e.Account = account
	return e
}

// WithAsset attaches the asset identifier.
func (e *Error) WithAsset(asset string) *Error {
	e.Asset = asset
	return e
}

// WithStatus attaches the ledger status code.
func (e *Error) WithStatus(status string) *Error {
	e.Status = status
	return e
}

// ClassOf returns the class of the outermost classified error in err's
// chain, or ClassUnknown.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassUnknown
}

// IsTransient reports whether err is a transport-level failure eligible for
// caller-side retry.
func IsTransient(err error) bool {
	return ClassOf(err) == ClassTransient
}

// IsInvariant reports whether err is a logic defect.
func IsInvariant(err error) bool {
	return ClassOf(err) == ClassInvariant
}
