package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"go-timesheet/internal/clock"
	"go-timesheet/internal/events"
	"go-timesheet/internal/shared/apperror"
)

// ConsumeClockSessions applies clock_session_closed events to the timesheet
// side. ApplyClosedSession is a no-op for already-reconciled sessions, so
// redelivered messages are harmless and can always be committed.
func ConsumeClockSessions(
	ctx context.Context,
	reader *kafkago.Reader,
	clockService clock.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.clock_sessions")
	log.Info("clock session consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("clock session consumer stopped")
				return
			}
			log.Error("fetch clock session message failed", zap.Error(err))
			continue
		}

		var event events.ClockSessionClosedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode clock_session_closed event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		sessionID, err := uuid.Parse(event.SessionID)
		if err != nil {
			log.Error("invalid session id in event", zap.String("session_id", event.SessionID))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := clockService.ApplyClosedSession(ctx, sessionID); err != nil {
			if isPermanent(err) {
				log.Warn("dropping unprocessable clock session event",
					zap.String("session_id", event.SessionID),
					zap.Error(err),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			// Transient failure: leave the message uncommitted and let the
			// backfill batch pick the session up if redelivery also fails.
			log.Error("apply closed session failed",
				zap.String("session_id", event.SessionID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit clock session message failed", zap.Error(err))
			continue
		}

		log.Info("clock session event applied",
			zap.String("session_id", event.SessionID),
			zap.String("user_id", event.UserID),
		)
	}
}

func isPermanent(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.HTTPStatus < 500
}
