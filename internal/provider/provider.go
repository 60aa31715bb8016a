package provider

import "context"

// EmailSender delivers a single email. html may be empty.
type EmailSender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// SMSSender delivers a single SMS message.
type SMSSender interface {
	Send(ctx context.Context, phone, body string) error
}

// PushSender manages platform endpoints and delivers push messages to them.
type PushSender interface {
	// CreateEndpoint registers a device token with the push platform and
	// returns the resulting endpoint ARN.
	CreateEndpoint(ctx context.Context, deviceToken, userID string) (string, error)

	// DeleteEndpoint removes a platform endpoint. Deleting an endpoint that
	// no longer exists is not an error.
	DeleteEndpoint(ctx context.Context, endpointARN string) error

	// Send publishes a push message to a single endpoint. A disabled
	// endpoint is reported as ErrEndpointDisabled.
	Send(ctx context.Context, endpointARN, title, body string, data map[string]any) error
}
