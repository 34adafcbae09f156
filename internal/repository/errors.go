package repository

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDuplicatePayment    = errors.New("payment already credited")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrJobRefConflict      = errors.New("job ref belongs to another account")
)
