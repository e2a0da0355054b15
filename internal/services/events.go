package services

import (
	"context"
	"log"
)

// Marketplace event routing keys.
const (
	EventUserSignedUp    = "user.signed_up"
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDeleted  = "product.deleted"
	EventCartItemAdded   = "cart.item_added"
	EventCartItemRemoved = "cart.item_removed"
)

// EventPublisher sends marketplace events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload map[string]interface{}) error
}

// publish sends an event when a publisher is configured. Failures are logged;
// the user's action has already succeeded.
func publish(ctx context.Context, events EventPublisher, routingKey string, payload map[string]interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, routingKey, payload); err != nil {
		log.Printf("Failed to publish %s event: %v", routingKey, err)
	}
}
