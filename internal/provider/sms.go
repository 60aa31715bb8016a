package provider

import (
	"context"
	"fmt"

	"github.com/emrekoc/notifyq/internal/domain"
)

// SMSDispatcher routes an SMS to the backend named on the notification.
type SMSDispatcher struct {
	senders map[domain.SMSProvider]SMSSender
}

func NewSMSDispatcher(senders map[domain.SMSProvider]SMSSender) *SMSDispatcher {
	if senders == nil {
		senders = make(map[domain.SMSProvider]SMSSender)
	}
	return &SMSDispatcher{senders: senders}
}

func (d *SMSDispatcher) Send(ctx context.Context, smsProvider domain.SMSProvider, phone, body string) error {
	sender, ok := d.senders[smsProvider]
	if !ok {
		return fmt.Errorf("%w: no sms backend for provider %q", ErrNotConfigured, smsProvider)
	}
	return sender.Send(ctx, phone, body)
}
