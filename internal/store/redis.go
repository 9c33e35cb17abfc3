package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/realitypatch/realitypatch/internal/models"
)

const (
	// DefaultRetentionDays is how long an inactive record is kept.
	DefaultRetentionDays = 30
	// userKeyPrefix matches the legacy key layout so existing records keep
	// working.
	userKeyPrefix = "user:"

	saveRetries     = 3
	saveRetryDelay  = 100 * time.Millisecond
	verifyRetries   = 3
	verifyRetryWait = 150 * time.Millisecond
)

// RedisStore is the redis-backed RecordStore.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	logger    *zap.Logger
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(redisURL string, retentionDays int, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	return &RedisStore{
		client:    client,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger,
	}, nil
}

// Client exposes the underlying redis client so other redis-backed concerns
// (rate limiting) can share the connection pool.
func (s *RedisStore) Client() *redis.Client { return s.client }

// Close closes the redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

// Ping implements RecordStore.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func userKey(sessionID string) string { return userKeyPrefix + sessionID }

// Get implements RecordStore. Unknown sessions get a fresh default record.
// A stored-but-expired credit balance is zeroed and written back best-effort,
// so reads converge the stored value with the effective one.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.UserRecord, error) {
	now := time.Now()

	data, err := s.client.Get(ctx, userKey(sessionID)).Bytes()
	if err == redis.Nil {
		return models.NewUserRecord(now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, sessionID, err)
	}

	var record models.UserRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// A corrupt record is unrecoverable; start the session over rather
		// than failing every request for it.
		s.warn("corrupt_user_record_reset", sessionID, err)
		return models.NewUserRecord(now), nil
	}
	if record.History == nil {
		record.History = []models.Interaction{}
	}

	if record.CreditsExpired(now) {
		record.ExtraCredits = 0
		record.CreditsExpiry = nil
		if err := s.Save(ctx, sessionID, &record); err != nil {
			s.warn("expired_credit_cleanup_failed", sessionID, err)
		}
	}

	return &record, nil
}

// Save implements RecordStore. Retries transient faults a bounded number of
// times; the write is a full-record SET so retries are idempotent.
func (s *RedisStore) Save(ctx context.Context, sessionID string, record *models.UserRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal user record: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(saveRetryDelay * time.Duration(attempt)):
			}
		}
		if err := s.client.Set(ctx, userKey(sessionID), data, s.retention).Err(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: save %s after %d attempts: %v", ErrUnavailable, sessionID, saveRetries, lastErr)
}

// AddCredits implements RecordStore. The credit fields are the two most
// race-exposed pieces of state, so the update runs as an optimistic WATCH
// transaction and is then verified by re-reading: the backing store is only
// eventually consistent, and a write-then-trust pattern has lost grants
// before. A verification mismatch is a hard failure.
func (s *RedisStore) AddCredits(ctx context.Context, sessionID string, amount int, expiry time.Time) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	key := userKey(sessionID)
	var total int

	txn := func(tx *redis.Tx) error {
		record := models.NewUserRecord(time.Now())
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if jsonErr := json.Unmarshal(data, record); jsonErr != nil {
				record = models.NewUserRecord(time.Now())
			}
		}

		if record.CreditsExpired(time.Now()) {
			record.ExtraCredits = 0
		}
		record.ExtraCredits += amount
		exp := expiry.UTC()
		record.CreditsExpiry = &exp
		total = record.ExtraCredits

		out, err := json.Marshal(record)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.retention)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < saveRetries; attempt++ {
		err = s.client.Watch(ctx, txn, key)
		if err == nil {
			break
		}
		if err != redis.TxFailedErr {
			return 0, fmt.Errorf("%w: add credits for %s: %v", ErrUnavailable, sessionID, err)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("%w: add credits for %s: concurrent updates exhausted retries", ErrUnavailable, sessionID)
	}

	if err := s.verifyCredits(ctx, key, total); err != nil {
		return 0, err
	}

	return total, nil
}

// verifyCredits re-reads the record until the expected balance is visible,
// tolerating brief replication lag.
func (s *RedisStore) verifyCredits(ctx context.Context, key string, want int) error {
	for attempt := 0; attempt < verifyRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(verifyRetryWait):
			}
		}

		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var record models.UserRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		if record.ExtraCredits >= want {
			return nil
		}
	}
	return ErrVerifyFailed
}

// Analytics is an estimate of store-wide activity.
type Analytics struct {
	TotalSessions       int `json:"totalSessions"`
	EstimatedDailyUsage int `json:"estimatedDailyUsage"`
}

// GetAnalytics counts session records and estimates today's usage by sampling
// up to sampleSize of them.
func (s *RedisStore) GetAnalytics(ctx context.Context, sampleSize int) (*Analytics, error) {
	if sampleSize <= 0 {
		sampleSize = 10
	}

	var keys []string
	iter := s.client.Scan(ctx, 0, userKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan sessions: %v", ErrUnavailable, err)
	}

	total := len(keys)
	if total == 0 {
		return &Analytics{}, nil
	}

	today := models.UTCDate(time.Now())
	sampled := 0
	usage := 0
	for _, key := range keys {
		if sampled >= sampleSize {
			break
		}
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var record models.UserRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		sampled++
		if record.Usage.LastReset == today {
			usage += record.Usage.Count
		}
	}

	estimated := 0
	if sampled > 0 {
		estimated = usage * total / sampled
	}

	return &Analytics{TotalSessions: total, EstimatedDailyUsage: estimated}, nil
}

func (s *RedisStore) warn(event, sessionID string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(event,
		zap.String("session_id", truncateID(sessionID)),
		zap.Error(err),
	)
}

// truncateID shortens session ids for logs.
func truncateID(id string) string {
	if len(id) > 20 {
		return id[:20] + "..."
	}
	return strings.TrimSpace(id)
}

var _ RecordStore = (*RedisStore)(nil)
