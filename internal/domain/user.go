package domain

import (
	"errors"
	"time"
)

// ErrUserNotFound is returned when no user row exists for a telegram id.
var ErrUserNotFound = errors.New("user not found")

// User is a registered funnel participant.
type User struct {
	ID         int64   // internal row id
	TelegramID int64   // platform identity, immutable
	Username   string
	FirstName  string
	LastName   string
	Email      *string // nullable until it passes validation
	HasPaid    bool    // monotone: false -> true, never reverts
	CreatedAt  time.Time
}

// ConvState is the per-user conversation state gating the payment step.
type ConvState string

const (
	StateIdle          ConvState = "idle"
	StateAwaitingEmail ConvState = "awaiting_email"
)
