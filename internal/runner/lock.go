// Package runner drives sweeps over the open-ticket backlog: it lists open
// tickets, takes a per-ticket lock so concurrent sweepers never double-send
// an email, and feeds each ticket through the resolution conversation.
package runner

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "ticket-resolver:lock:"

// TicketLocks provides per-ticket mutual exclusion across sweeper
// instances. The resolution flow itself is not idempotent (it sends mail),
// so a ticket is processed only while its lock is held.
type TicketLocks struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTicketLocks(client *redis.Client, ttl time.Duration) *TicketLocks {
	return &TicketLocks{client: client, ttl: ttl}
}

// Acquire takes the lock for a ticket. Returns false when another sweeper
// already holds it. The TTL bounds how long a crashed holder can block the
// ticket.
func (l *TicketLocks) Acquire(ctx context.Context, ticketID string) (bool, error) {
	return l.client.SetNX(ctx, lockKeyPrefix+ticketID, "1", l.ttl).Result()
}

// Release frees the lock after processing.
func (l *TicketLocks) Release(ctx context.Context, ticketID string) error {
	return l.client.Del(ctx, lockKeyPrefix+ticketID).Err()
}
