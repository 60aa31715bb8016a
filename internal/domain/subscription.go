package domain

import (
	"fmt"
	"strings"
	"time"
)

const PlatformAndroidSNS = "ANDROID_SNS"

// PushSubscription binds a user to one provider-side delivery endpoint.
// (user_id, device_token) is the natural key for upsert; the endpoint ARN is
// globally unique and owned by the provider side.
type PushSubscription struct {
	ID          string
	UserID      string
	DeviceToken string
	EndpointARN string
	Platform    string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *PushSubscription) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if strings.TrimSpace(s.DeviceToken) == "" {
		return fmt.Errorf("%w: device_token is required", ErrValidation)
	}
	if strings.TrimSpace(s.EndpointARN) == "" {
		return fmt.Errorf("%w: endpoint_arn is required", ErrValidation)
	}
	return nil
}
