/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package degrees

import (
	"errors"
	"fmt"
)

// Reason is a machine-readable failure category, sent as-is to clients.
type Reason string

const (
	ReasonDataError        Reason = "data_error"
	ReasonBusy             Reason = "busy"
	ReasonInvalidFilters   Reason = "invalid_filters"
	ReasonNotEnoughPlayers Reason = "not_enough_players"
	ReasonNoSuitablePair   Reason = "no_suitable_pair"
	ReasonInvalidMove      Reason = "invalid_move"
	ReasonNoActiveRound    Reason = "no_active_round"
	ReasonRoundOver        Reason = "round_over"
	ReasonNoPath           Reason = "no_path"
)

// Sentinels for errors.Is; any *Error with the same Reason matches.
var (
	ErrDataError        = &Error{Reason: ReasonDataError}
	ErrBusy             = &Error{Reason: ReasonBusy}
	ErrInvalidFilters   = &Error{Reason: ReasonInvalidFilters}
	ErrNotEnoughPlayers = &Error{Reason: ReasonNotEnoughPlayers}
	ErrNoSuitablePair   = &Error{Reason: ReasonNoSuitablePair}
	ErrInvalidMove      = &Error{Reason: ReasonInvalidMove}
	ErrNoActiveRound    = &Error{Reason: ReasonNoActiveRound}
	ErrRoundOver        = &Error{Reason: ReasonRoundOver}
	ErrNoPath           = &Error{Reason: ReasonNoPath}
)

// Error is a game failure with a reason the presentation layer can switch on.
type Error struct {
	Reason  Reason
	Message string
	Cause   error
}

func newError(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func wrapError(reason Reason, cause error, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

// Retryable reports whether the same request may succeed if simply repeated.
func (e *Error) Retryable() bool {
	switch e.Reason {
	case ReasonBusy, ReasonNoSuitablePair, ReasonDataError:
		return true
	}
	return false
}

// ReasonOf returns the Reason carried by err, or "" if err is not a game error.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
