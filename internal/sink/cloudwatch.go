// Package sink delivers log records to AWS CloudWatch Logs.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// Config carries the region and credentials of the log sink. Nothing is read
// from the environment or the shared AWS config files.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func (c Config) validate() error {
	switch {
	case c.Region == "":
		return errors.New("sink: region is required")
	case c.AccessKeyID == "" || c.SecretAccessKey == "":
		return errors.New("sink: access key id and secret access key are required")
	}
	return nil
}

// logsAPI is the subset of the CloudWatch Logs client in use.
type logsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatch is a log sink backed by CloudWatch Logs.
type CloudWatch struct {
	api logsAPI
	log zerolog.Logger
}

// New builds a CloudWatch Logs client with static credentials.
func New(cfg Config, log zerolog.Logger) (*CloudWatch, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	}
	return newCloudWatch(cloudwatchlogs.NewFromConfig(awsCfg), log), nil
}

func newCloudWatch(api logsAPI, log zerolog.Logger) *CloudWatch {
	return &CloudWatch{
		api: api,
		log: log.With().Str("component", "sink").Logger(),
	}
}

// apiError annotates err with the AWS error code when there is one.
func apiError(op string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return fmt.Errorf("%s (%s): %w", op, ae.ErrorCode(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
