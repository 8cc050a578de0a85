// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"rss_fanout/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	GetSubscription(ctx context.Context, id int64) (*model.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	ListByChat(ctx context.Context, chatID int64) ([]model.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *model.Subscription) error
	DeleteSubscription(ctx context.Context, id int64) error

	// DeleteByChat removes every subscription registered for a chat.
	// The poller calls this for destinations that no longer resolve.
	DeleteByChat(ctx context.Context, chatID int64) error

	Close() error
}
