package provider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// AWSSettings carries the shared credentials and region used by the SES and
// SNS backed providers.
type AWSSettings struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

func (s AWSSettings) configured() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != "" && s.Region != ""
}

func loadAWSConfig(ctx context.Context, settings AWSSettings) (aws.Config, error) {
	if !settings.configured() {
		return aws.Config{}, fmt.Errorf("%w: aws credentials missing", ErrNotConfigured)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(settings.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return cfg, nil
}
