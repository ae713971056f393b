package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("amount must be > 0")
	ErrAmountTooLarge      = errors.New("amount exceeds charge limit")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// AmountTooLargeError carries the rejected amount and the limit in force.
type AmountTooLargeError struct {
	Amount int64
	Limit  int64
}

func (e *AmountTooLargeError) Error() string {
	return fmt.Sprintf("amount too large: %d exceeds limit %d", e.Amount, e.Limit)
}

func (e *AmountTooLargeError) Unwrap() error { return ErrAmountTooLarge }

// InsufficientBalanceError reports a debit larger than the snapshot it was validated against.
type InsufficientBalanceError struct {
	UserID    int64
	Available int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: user %d has %d, requested %d",
		e.UserID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// IsValidation reports whether err is one of the ledger's input validation failures.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAmountTooLarge) ||
		errors.Is(err, ErrInsufficientBalance)
}
