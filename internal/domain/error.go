package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Credit ledger errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientCredits = errors.New("insufficient credits")

	// Payment settlement errors
	ErrAmountMismatch     = errors.New("amount does not match plan or package price")
	ErrInvalidSignature   = errors.New("callback signature verification failed")
	ErrUnknownTransaction = errors.New("no payment record for transaction id")
	ErrPaymentTerminal    = errors.New("payment already in a terminal state")
	ErrGrantFailed        = errors.New("credit grant failed after settlement")

	// Generation errors
	ErrProviderFailed = errors.New("generation provider call failed")

	// Infrastructure errors surfaced by repositories
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction context")
	ErrLockNotAcquired    = errors.New("could not acquire lock")
)
