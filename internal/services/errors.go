package services

import "errors"

// Common service errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidState       = errors.New("invalid state transition")

	// Ledger errors
	ErrScheduleNotFound            = errors.New("no fee schedule configured for this class and session")
	ErrDuplicateMonth              = errors.New("an obligation already exists for this month")
	ErrInvalidAmount               = errors.New("amount must be greater than zero")
	ErrInsufficientAllocatedAmount = errors.New("reversal exceeds the remaining allocated amount")
	ErrConcurrentModification      = errors.New("account was modified concurrently, retry the operation")
)
