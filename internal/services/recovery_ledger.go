package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ledgerKeyPrefix = "revenue-scanner"

// RecoveryLedger records which carts already received a reminder or a
// discount, so repeated clicks do not spam customers. It stores nothing
// about the scan itself. A ledger without Redis allows every action.
type RecoveryLedger struct {
	redis  *redis.Client
	logger *zap.Logger
}

// IssuedDiscount is the discount stored for a cart.
type IssuedDiscount struct {
	Code      string    `json:"code"`
	Percent   int       `json:"percent"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}

// NewRecoveryLedger creates a new ledger
func NewRecoveryLedger(redisClient *redis.Client, logger *zap.Logger) *RecoveryLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecoveryLedger{
		redis:  redisClient,
		logger: logger,
	}
}

func (l *RecoveryLedger) reminderKey(shop, cartID string) string {
	return fmt.Sprintf("%s:reminder:%s:%s", ledgerKeyPrefix, shop, cartID)
}

func (l *RecoveryLedger) discountKey(shop, cartID string) string {
	return fmt.Sprintf("%s:discount:%s:%s", ledgerKeyPrefix, shop, cartID)
}

// ClaimReminder marks a reminder as sent for the cooldown period. It returns
// false when a reminder for the cart is still cooling down.
func (l *RecoveryLedger) ClaimReminder(ctx context.Context, shop, cartID string, cooldown time.Duration) (bool, error) {
	if l.redis == nil {
		return true, nil
	}

	key := l.reminderKey(shop, cartID)
	ok, err := l.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), cooldown).Result()
	if err != nil {
		l.logger.Warn("failed to claim reminder", zap.Error(err), zap.String("key", key))
		return false, err
	}
	return ok, nil
}

// ReleaseReminder drops a claim whose reminder could not be dispatched.
func (l *RecoveryLedger) ReleaseReminder(ctx context.Context, shop, cartID string) {
	if l.redis == nil {
		return
	}
	key := l.reminderKey(shop, cartID)
	if err := l.redis.Del(ctx, key).Err(); err != nil {
		l.logger.Warn("failed to release reminder claim", zap.Error(err), zap.String("key", key))
	}
}

// GetDiscount returns the discount issued for a cart, or nil.
func (l *RecoveryLedger) GetDiscount(ctx context.Context, shop, cartID string) (*IssuedDiscount, error) {
	if l.redis == nil {
		return nil, nil
	}

	key := l.discountKey(shop, cartID)
	data, err := l.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		l.logger.Warn("failed to get discount from ledger", zap.Error(err), zap.String("key", key))
		return nil, err
	}

	var discount IssuedDiscount
	if err := json.Unmarshal(data, &discount); err != nil {
		l.logger.Warn("failed to unmarshal ledger discount", zap.Error(err))
		return nil, nil
	}
	return &discount, nil
}

// SaveDiscount stores the discount issued for a cart until it expires.
func (l *RecoveryLedger) SaveDiscount(ctx context.Context, shop, cartID string, discount *IssuedDiscount) error {
	if l.redis == nil {
		return nil
	}

	ttl := time.Until(discount.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(discount)
	if err != nil {
		return err
	}

	key := l.discountKey(shop, cartID)
	if err := l.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		l.logger.Warn("failed to save discount in ledger", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

// RedactShop removes every ledger entry of a shop and returns how many were removed.
func (l *RecoveryLedger) RedactShop(ctx context.Context, shop string) (int, error) {
	if l.redis == nil {
		return 0, nil
	}

	removed := 0
	for _, kind := range []string{"reminder", "discount"} {
		pattern := fmt.Sprintf("%s:%s:%s:*", ledgerKeyPrefix, kind, shop)
		iter := l.redis.Scan(ctx, 0, pattern, 100).Iterator()

		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			l.logger.Warn("failed to scan ledger keys", zap.Error(err), zap.String("pattern", pattern))
			return removed, err
		}

		if len(keys) > 0 {
			n, err := l.redis.Del(ctx, keys...).Result()
			if err != nil {
				l.logger.Warn("failed to delete ledger keys", zap.Error(err))
				return removed, err
			}
			removed += int(n)
		}
	}

	l.logger.Debug("redacted recovery ledger", zap.String("shop", shop), zap.Int("keys_removed", removed))
	return removed, nil
}
