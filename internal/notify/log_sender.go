package notify

import (
	"context"

	"github.com/eshen7/frc-marketplace/pkg/log"
)

// LogSender records notification jobs in the service log instead of
// producing them anywhere. Used when the side channel is disabled.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (s *LogSender) Send(ctx context.Context, job *Job) error {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldEventKind, job.Kind).
		RawJSON("payload", job.Payload).
		Msg("notification (side channel disabled)")
	return nil
}

func (s *LogSender) Close() error { return nil }
