package leads

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMethodNotAllowed is returned for anything other than POST or OPTIONS
	ErrMethodNotAllowed = errors.New("Method Not Allowed. Use POST.")

	// ErrPayloadTooLarge is returned when the body exceeds the configured cap
	ErrPayloadTooLarge = errors.New("Payload too large")

	// ErrInvalidJSON is returned when the body cannot be decoded
	ErrInvalidJSON = errors.New("Invalid JSON body")

	// ErrMissingTimestamp is returned when the load-time timestamp is absent.
	// The message stays generic so forged requests learn nothing.
	ErrMissingTimestamp = errors.New("Bad request")

	// ErrTooFast is returned when the form was submitted sooner than the minimum dwell time
	ErrTooFast = errors.New("Too fast. Please try again.")

	// ErrNameRequired is returned when the name is empty under a policy that requires it
	ErrNameRequired = errors.New("Name is required")

	// ErrPhoneRequired is returned when the phone has fewer than MinPhoneDigits digits
	ErrPhoneRequired = errors.New("Phone is required")

	// ErrContactRequired is returned when neither telegram nor whatsapp is set
	ErrContactRequired = errors.New("Telegram or WhatsApp is required")

	// ErrConsentRequired is returned when consent does not normalize to true
	ErrConsentRequired = errors.New("Consent is required")

	// ErrStoreNotConfigured marks a missing store connection setting
	ErrStoreNotConfigured = errors.New("leads store not configured")

	// ErrStoreWrite marks a rejected insert
	ErrStoreWrite = errors.New("leads store write failed")

	// ErrLeadNotFound is returned by InMemoryRepository.GetByID for an unknown id
	ErrLeadNotFound = errors.New("lead not found")
)

// ConfigError reports the deployment settings the store needs but did not get.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Missing %s in environment.", strings.Join(e.Missing, " or "))
}

func (e *ConfigError) Unwrap() error { return ErrStoreNotConfigured }

// StoreError carries the store-provided detail of a failed insert.
type StoreError struct {
	Detail string
	Err    error
}

func (e *StoreError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ErrStoreWrite.Error()
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStoreWrite}
	}
	return []error{ErrStoreWrite, e.Err}
}
