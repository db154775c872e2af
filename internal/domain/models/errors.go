package models

import "errors"

// Command-boundary rejections. Every mutating operation is all-or-nothing:
// when one of these is returned, no state was changed.
var (
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientAsset = errors.New("insufficient asset balance")
	ErrSessionConflict   = errors.New("a wager session is already active")
	ErrAccountNotFound   = errors.New("account not found")
)
