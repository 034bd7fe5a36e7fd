package provider

import (
	"errors"
	"fmt"
)

// Provider failures fall into exactly three classes. Unavailable and
// RateLimited are transient; Rejected means the input is invalid and a
// retry can never succeed.
var (
	ErrUnavailable = errors.New("provider unavailable")
	ErrRateLimited = errors.New("provider rate limited")
	ErrRejected    = errors.New("provider rejected input")
)

func Unavailablef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

func RateLimitedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRateLimited, fmt.Sprintf(format, args...))
}

func Rejectedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
func IsRejected(err error) bool    { return errors.Is(err, ErrRejected) }

// Retryable reports whether the failure is worth another attempt after
// backoff.
func Retryable(err error) bool {
	return IsUnavailable(err) || IsRateLimited(err)
}

func classified(err error) bool {
	return IsUnavailable(err) || IsRateLimited(err) || IsRejected(err)
}
