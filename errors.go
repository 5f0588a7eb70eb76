package sidekick

import "errors"

// Lookup errors distinguish a missing value from a failed operation.
var (
	// ErrNotFound indicates that a lookup (symbol, rate, market price, account) has no result.
	ErrNotFound = errors.New("not found")

	// ErrAccountNotFound indicates that the account a file set is imported into does not exist remotely.
	ErrAccountNotFound = errors.New("account not found")
)

// Remote write errors.
var (
	// ErrDuplicate indicates that the remote ledger treated a create as a duplicate
	// of an existing record. It is a success for the reconciliation.
	ErrDuplicate = errors.New("duplicate activity")

	// ErrRemoteOperation indicates that the remote ledger rejected a create, update or delete.
	ErrRemoteOperation = errors.New("remote operation failed")
)
