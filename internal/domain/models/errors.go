package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEntryNotFound      = errors.New("entry not found")
	ErrUnknownIndicator   = errors.New("unknown indicator")
	ErrRefreshInProgress  = errors.New("refresh already in progress")
	ErrNoObservations     = errors.New("no observations")
	ErrHistoryUnavailable = errors.New("history archive disabled")
)

// ErrorKind classifies adapter failures.
type ErrorKind string

const (
	KindFetch ErrorKind = "fetch"
	KindParse ErrorKind = "parse"
)

// FetchError is a network or HTTP failure talking to a provider.
type FetchError struct {
	Source     string
	Indicator  string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s fetch %s: status %d: %v", e.Source, e.Indicator, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s fetch %s: %v", e.Source, e.Indicator, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means the provider answered but the payload had an unexpected
// shape or contained nothing usable.
type ParseError struct {
	Source    string
	Indicator string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse %s: %v", e.Source, e.Indicator, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StaleDataWarning is informational: a refresh failed and older data was kept.
type StaleDataWarning struct {
	Indicator string
	Age       time.Duration
	Cause     error
}

func (w *StaleDataWarning) Error() string {
	return fmt.Sprintf("serving stale %s (age %s): %v", w.Indicator, w.Age.Round(time.Second), w.Cause)
}

func (w *StaleDataWarning) Unwrap() error { return w.Cause }

// KindOf classifies err. Anything that is not a ParseError counts as a fetch
// failure.
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return KindParse
	}
	return KindFetch
}
