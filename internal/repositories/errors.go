package repositories

import "errors"

// Storage-level sentinel errors. Services map these onto their own
// taxonomy before they reach a handler.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrTraderNotFound      = errors.New("trader not found")
	ErrTraderExists        = errors.New("trader profile already exists")
	ErrCardNotFound        = errors.New("card not found")
	ErrCardCapacity        = errors.New("card capacity exceeded")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrStatusConflict      = errors.New("transaction status conflict")
	ErrInsufficientBalance = errors.New("insufficient usdt balance")
)
