package service

import (
	"context"
	"log"
	"time"

	"go-warehouse-ws/internal/cache"
)

// Publisher pushes live events to connected clients. Implementations must
// not block; ws.Hub drops events when its buffer is full.
type Publisher interface {
	Publish(event interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(interface{}) {}

// NopPublisher discards every event.
var NopPublisher Publisher = nopPublisher{}

// Clock returns the current time; tests replace it.
type Clock func() time.Time

const (
	eventStockUpdate   = "stock_update"
	eventRequestUpdate = "request_update"
)

func event(kind, action, message string, actor Actor, data map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		"type":    kind,
		"action":  action,
		"user":    actor.payload(),
		"message": message,
	}
	for k, v := range data {
		payload[k] = v
	}
	return payload
}

// invalidate drops cached snapshots. A failing cache never fails the operation.
func invalidate(ctx context.Context, c cache.Cache, keys ...string) {
	if c == nil {
		return
	}
	if err := c.Del(ctx, keys...); err != nil {
		log.Printf("Warning: cache invalidation failed for %v: %v", keys, err)
	}
}
