// Package events publishes recipe activity events to a message broker.
// The API server only emits; consumers live in separate binaries.
package events

import "context"

// Publisher defines the broker-agnostic publish operations used by services.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// RecipeChannel is the channel recipe activity events are published to.
const RecipeChannel = "recipe-events"
