package exchange

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrAlreadyProcessed: the transaction left the pending state before
	// this confirmation arrived.
	ErrAlreadyProcessed = errors.New("transaction already processed")
	// ErrAwaitingUserConfirm: trader confirmation requires the user to
	// have confirmed the fiat payment first.
	ErrAwaitingUserConfirm = errors.New("user must confirm payment first")
)
