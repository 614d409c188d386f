// Package cache hands entry-list invalidations to the presentation layer.
// The service never caches lists itself: it only tells whoever renders and
// caches a user's list that the list is stale.
package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InvalidationChannel carries the id of every user whose entry list changed.
const InvalidationChannel = "journal:entries:invalidated"

const keyPrefix = "journal:entries:"

// EntryListKey returns the Redis key under which the presentation layer
// keeps userID's rendered entry list.
func EntryListKey(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

// EntryListInvalidator marks a user's rendered entry list as stale.
type EntryListInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// redisEntryListInvalidator implements EntryListInvalidator on Redis.
type redisEntryListInvalidator struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisEntryListInvalidator creates a Redis-backed invalidator.
func NewRedisEntryListInvalidator(client *redis.Client, logger *zap.Logger) EntryListInvalidator {
	return &redisEntryListInvalidator{
		client: client,
		logger: logger.Named("entry-list"),
	}
}

// Invalidate drops the presentation layer's cached list and publishes the
// user id on InvalidationChannel, in one pipeline.
func (c *redisEntryListInvalidator) Invalidate(ctx context.Context, userID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, EntryListKey(userID))
		pipe.Publish(ctx, InvalidationChannel, userID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate entry list: %w", err)
	}

	c.logger.Debug("Invalidated entry list", zap.String("user_id", userID.String()))
	return nil
}

// noopEntryListInvalidator is used when Redis is not configured.
type noopEntryListInvalidator struct{}

// NewNoopEntryListInvalidator returns an invalidator that does nothing.
func NewNoopEntryListInvalidator() EntryListInvalidator {
	return noopEntryListInvalidator{}
}

func (noopEntryListInvalidator) Invalidate(context.Context, uuid.UUID) error {
	return nil
}

// New returns a Redis-backed invalidator, or a no-op one when client is nil.
func New(client *redis.Client, logger *zap.Logger) EntryListInvalidator {
	if client == nil {
		return NewNoopEntryListInvalidator()
	}
	return NewRedisEntryListInvalidator(client, logger)
}

var (
	_ EntryListInvalidator = (*redisEntryListInvalidator)(nil)
	_ EntryListInvalidator = noopEntryListInvalidator{}
)
