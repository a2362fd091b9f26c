// Package activity records the audit trail without blocking request handlers.
package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

// Topic carries recorded entries from the sink to the persister.
const Topic = "activity.recorded"

// Sink publishes activity entries to the in-process bus.
type Sink struct {
	publisher message.Publisher
	now       func() time.Time
}

func NewSink(publisher message.Publisher) *Sink {
	return &Sink{publisher: publisher, now: time.Now}
}

// Record publishes e. Failures are logged and never reach the caller.
func (s *Sink) Record(ctx context.Context, e entity.ActivityEntry) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		slog.Error("Failed to marshal activity entry", "action", e.Action, "err", err)
		return
	}

	msg := message.NewMessage(e.ID, payload)
	msg.SetContext(context.WithoutCancel(ctx))
	if err := s.publisher.Publish(Topic, msg); err != nil {
		slog.Error("Failed to publish activity entry", "action", e.Action, "entity_id", e.EntityID, "err", err)
	}
}

// Register adds the persisting handler to router.
func Register(router *message.Router, sub message.Subscriber, repo repository.ActivityRepository) {
	router.AddNoPublisherHandler("activity_persister", Topic, sub, Persist(repo))
}

// Persist stores each entry through repo.
func Persist(repo repository.ActivityRepository) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var e entity.ActivityEntry
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			slog.Error("Dropping malformed activity entry", "message_uuid", msg.UUID, "err", err)
			return nil
		}
		return repo.Append(msg.Context(), &e)
	}
}

// RetryThenDrop retries a failing handler a few times and then acknowledges
// the message anyway, so a broken database cannot wedge the bus.
func RetryThenDrop(retries int, interval time.Duration) message.HandlerMiddleware {
	retry := middleware.Retry{MaxRetries: retries, InitialInterval: interval}
	return func(h message.HandlerFunc) message.HandlerFunc {
		withRetry := retry.Middleware(h)
		return func(msg *message.Message) ([]*message.Message, error) {
			msgs, err := withRetry(msg)
			if err != nil {
				slog.Error("Dropping activity entry after retries", "message_uuid", msg.UUID, "err", err)
				return nil, nil
			}
			return msgs, nil
		}
	}
}
