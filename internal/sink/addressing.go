package sink

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/rusenback/logship/internal/model"
)

// EnsureGroup creates the log group unless it already exists.
func (s *CloudWatch) EnsureGroup(ctx context.Context, group string) error {
	_, err := s.api.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(group),
	})
	switch {
	case err == nil:
		s.log.Info().Str("group", group).Msg("log group created")
		return nil
	case alreadyExists(err):
		s.log.Info().Str("group", group).Msg("log group already exists")
		return nil
	}
	return apiError("creating log group "+group, err)
}

// EnsureStream creates the log stream inside group unless it already
// exists. The group has to exist.
func (s *CloudWatch) EnsureStream(ctx context.Context, group, stream string) error {
	_, err := s.api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(stream),
	})
	switch {
	case err == nil:
		s.log.Info().Str("group", group).Str("stream", stream).Msg("log stream created")
		return nil
	case alreadyExists(err):
		s.log.Info().Str("group", group).Str("stream", stream).Msg("log stream already exists")
		return nil
	}
	return apiError("creating log stream "+group+"/"+stream, err)
}

// Ensure makes sure the group and then the stream of target exist.
func (s *CloudWatch) Ensure(ctx context.Context, target model.SinkTarget) error {
	if err := s.EnsureGroup(ctx, target.Group); err != nil {
		return err
	}
	return s.EnsureStream(ctx, target.Group, target.Stream)
}

func alreadyExists(err error) bool {
	var exists *types.ResourceAlreadyExistsException
	return errors.As(err, &exists)
}
