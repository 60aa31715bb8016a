package provider

import "errors"

var (
	// ErrNotConfigured marks a provider whose credentials or settings are
	// missing. Callers treat it as a delivery failure without retry value.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrEndpointDisabled marks a push endpoint the platform has disabled,
	// typically after the device token was invalidated.
	ErrEndpointDisabled = errors.New("push endpoint disabled")
)
