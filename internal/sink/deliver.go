package sink

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/rusenback/logship/internal/model"
)

// PutLogEvents limits.
const (
	maxBatchEvents = 10000
	maxBatchBytes  = 1048576
	eventOverhead  = 26
	maxEventBytes  = 262144 - eventOverhead
)

// Deliver submits records to the stream of target. Records are split into as
// many PutLogEvents calls as the API limits require; the first failing call
// ends the delivery and its error is returned together with the counts of
// the calls that went through.
func (s *CloudWatch) Deliver(ctx context.Context, target model.SinkTarget, records []model.LogRecord) (model.DeliveryResult, error) {
	var result model.DeliveryResult

	for _, chunk := range chunk(toEvents(records)) {
		out, err := s.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(target.Group),
			LogStreamName: aws.String(target.Stream),
			LogEvents:     chunk,
		})
		if err != nil {
			return result, apiError(fmt.Sprintf("putting %d log events to %s", len(chunk), target), err)
		}
		result.Add(rejected(len(chunk), out.RejectedLogEventsInfo))
	}
	return result, nil
}

func toEvents(records []model.LogRecord) []types.InputLogEvent {
	events := make([]types.InputLogEvent, 0, len(records))
	for _, r := range records {
		events = append(events, types.InputLogEvent{
			Timestamp: aws.Int64(r.Millis()),
			Message:   aws.String(truncate(r.Message, maxEventBytes)),
		})
	}
	return events
}

// chunk splits events into slices that each fit into one PutLogEvents call.
func chunk(events []types.InputLogEvent) [][]types.InputLogEvent {
	var (
		chunks [][]types.InputLogEvent
		start  int
		size   int
	)
	for i, ev := range events {
		evSize := len(aws.ToString(ev.Message)) + eventOverhead
		if i > start && (i-start == maxBatchEvents || size+evSize > maxBatchBytes) {
			chunks = append(chunks, events[start:i])
			start, size = i, 0
		}
		size += evSize
	}
	if start < len(events) {
		chunks = append(chunks, events[start:])
	}
	return chunks
}

// rejected turns the index boundaries reported by CloudWatch into counts.
func rejected(n int, info *types.RejectedLogEventsInfo) model.DeliveryResult {
	res := model.DeliveryResult{Accepted: n}
	if info == nil {
		return res
	}
	if info.TooOldLogEventEndIndex != nil {
		res.TooOld = clamp(int(*info.TooOldLogEventEndIndex), n)
	}
	if info.ExpiredLogEventEndIndex != nil {
		res.Expired = clamp(int(*info.ExpiredLogEventEndIndex), n)
	}
	if info.TooNewLogEventStartIndex != nil {
		res.TooNew = clamp(n-int(*info.TooNewLogEventStartIndex), n)
	}

	// Expired and too old events overlap: both are counted from the start.
	old := max(res.TooOld, res.Expired)
	res.Rejected = min(old+res.TooNew, n)
	res.Accepted = n - res.Rejected
	return res
}

func clamp(v, n int) int {
	return min(max(v, 0), n)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
