// Package redis provides the Redis-backed fetch ledger. Counters are
// transient operational state, kept out of SQLite so they expire on their
// own and survive application restarts independently of article data.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/common"
	"github.com/ternarybob/newsdesk/internal/models"
)

const (
	fieldAttempts  = "attempts"
	fieldSuccesses = "successes"
	fieldFailures  = "failures"

	// keyTTL keeps counters around long enough to inspect yesterday's
	// activity, then lets Redis reclaim them.
	keyTTL = 48 * time.Hour
)

// FetchLedger implements interfaces.FetchLedger on Redis hashes, one hash
// per symbol per UTC day.
type FetchLedger struct {
	client *goredis.Client
	logger arbor.ILogger
}

// NewFetchLedger creates a ledger from the Redis configuration.
func NewFetchLedger(config *common.RedisConfig, logger arbor.ILogger) *FetchLedger {
	client := goredis.NewClient(&goredis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &FetchLedger{client: client, logger: logger}
}

// NewFetchLedgerWithClient wraps an existing client, used in tests.
func NewFetchLedgerWithClient(client *goredis.Client, logger arbor.ILogger) *FetchLedger {
	return &FetchLedger{client: client, logger: logger}
}

// LedgerKey builds the counter key for a symbol on a given day.
func LedgerKey(symbol string, day time.Time) string {
	return fmt.Sprintf("fetch:%s:%s", strings.ToUpper(symbol), day.UTC().Format("2006-01-02"))
}

// RecordAttempt increments the attempt counter and returns the new count.
func (l *FetchLedger) RecordAttempt(ctx context.Context, symbol string, day time.Time) (int, error) {
	key := LedgerKey(symbol, day)

	pipe := l.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, fieldAttempts, 1)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record attempt for %s: %w", symbol, err)
	}
	return int(incr.Val()), nil
}

// RecordSuccess increments the success counter.
func (l *FetchLedger) RecordSuccess(ctx context.Context, symbol string, day time.Time) error {
	return l.increment(ctx, symbol, day, fieldSuccesses)
}

// RecordFailure increments the failure counter.
func (l *FetchLedger) RecordFailure(ctx context.Context, symbol string, day time.Time) error {
	return l.increment(ctx, symbol, day, fieldFailures)
}

func (l *FetchLedger) increment(ctx context.Context, symbol string, day time.Time, field string) error {
	key := LedgerKey(symbol, day)

	pipe := l.client.TxPipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record %s for %s: %w", field, symbol, err)
	}
	return nil
}

// Counts returns the counters for a symbol on a given day. Missing keys
// return zero counts.
func (l *FetchLedger) Counts(ctx context.Context, symbol string, day time.Time) (*models.FetchCounts, error) {
	values, err := l.client.HGetAll(ctx, LedgerKey(symbol, day)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger for %s: %w", symbol, err)
	}

	counts := &models.FetchCounts{}
	counts.Attempts = parseCount(values[fieldAttempts])
	counts.Successes = parseCount(values[fieldSuccesses])
	counts.Failures = parseCount(values[fieldFailures])
	return counts, nil
}

// Ping verifies the Redis connection.
func (l *FetchLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (l *FetchLedger) Close() error {
	return l.client.Close()
}

func parseCount(value string) int {
	n, _ := strconv.Atoi(value)
	return n
}
