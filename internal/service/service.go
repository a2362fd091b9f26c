// Package service holds the application's use cases. Handlers call services;
// services call repositories and publish events after commits.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/messaging"
)

// ActivityRecorder appends to the audit trail. Record must not block on, or
// report, storage failures.
type ActivityRecorder interface {
	Record(ctx context.Context, e entity.ActivityEntry)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}

func userID(caller *entity.Caller) string {
	if caller == nil {
		return ""
	}
	return caller.UserID
}

// publishTimeout bounds how long a request waits on the broker after its
// transaction has committed.
var publishTimeout = 2 * time.Second

// publish emits one event. The request's cancellation is ignored, its
// deadline is replaced by publishTimeout. Errors are logged only.
func publish(ctx context.Context, publisher messaging.Publisher, topic, key string, event any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := publisher.PublishEvent(ctx, topic, key, event); err != nil {
		slog.Error("Failed to publish event", "topic", topic, "key", key, "err", err)
	}
}

// publishStock emits one stock event per product.
func publishStock(ctx context.Context, publisher messaging.Publisher, updates []entity.ProductStockUpdated) {
	for _, u := range updates {
		publish(ctx, publisher, entity.TopicInventoryStockLevel, u.ProductID, u)
	}
}

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", entity.ErrForbidden, fmt.Sprintf(format, args...))
}
