// Package cache holds the Redis read-through cache for wallet summaries.
// Every committed mutation deletes the summary and bumps a per-user
// generation counter. A reader records the generation before it reads the
// database and only stores its row if the generation is unchanged, so a row
// read before a concurrent write is never cached after it. A summary can
// still be stale for one TTL when an invalidation itself is lost.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"swapledger/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	walletKeyPrefix     = "swapledger:wallet:"
	generationKeyPrefix = "swapledger:wallet-gen:"

	// generationTTL must outlive any in-flight read-through.
	generationTTL = 24 * time.Hour
)

var errGenerationMoved = errors.New("wallet generation moved")

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CacheService{client: client, ttl: ttl}
}

func walletKey(userID uint) string {
	return fmt.Sprintf("%s%d", walletKeyPrefix, userID)
}

func generationKey(userID uint) string {
	return fmt.Sprintf("%s%d", generationKeyPrefix, userID)
}

// GetWallet returns the cached summary, nil on a miss, together with the
// generation to hand back to CacheWallet.
func (s *CacheService) GetWallet(ctx context.Context, userID uint) (*models.Wallet, int64, error) {
	vals, err := s.client.MGet(ctx, walletKey(userID), generationKey(userID)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read cached wallet: %w", err)
	}

	var generation int64
	if raw, ok := vals[1].(string); ok {
		if generation, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("failed to decode wallet generation: %w", err)
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, generation, nil
	}
	var wallet models.Wallet
	if err := json.Unmarshal([]byte(raw), &wallet); err != nil {
		return nil, generation, fmt.Errorf("failed to decode cached wallet: %w", err)
	}
	return &wallet, generation, nil
}

// CacheWallet stores wallet unless the user's generation has moved past
// generation since the caller's read. A skipped write is not an error.
func (s *CacheService) CacheWallet(ctx context.Context, wallet *models.Wallet, generation int64) error {
	if wallet == nil {
		return errors.New("cannot cache nil wallet")
	}
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to encode wallet: %w", err)
	}

	genKey := generationKey(wallet.UserID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errGenerationMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, walletKey(wallet.UserID), data, s.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, errGenerationMoved) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// InvalidateWallet drops the summary and bumps the generation in one
// transaction.
func (s *CacheService) InvalidateWallet(ctx context.Context, userID uint) error {
	genKey := generationKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, walletKey(userID))
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		return nil
	})
	return err
}

func (s *CacheService) Close() error {
	return s.client.Close()
}
