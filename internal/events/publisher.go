// Package events publishes domain events about categories and transactions.
package events

import (
	"context"
)

// Publisher delivers domain events to subscribers outside the API.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
