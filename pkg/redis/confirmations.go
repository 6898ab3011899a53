package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const confirmationPrefix = "confirm"

// ConfirmationKey scopes a client-supplied Idempotency-Key to a household
// and user. The client key is hashed so arbitrary header values stay bounded.
func ConfirmationKey(householdID, userID, clientKey string) string {
	sum := sha256.Sum256([]byte(clientKey))
	return key(confirmationPrefix, householdID, userID, hex.EncodeToString(sum[:16]))
}

// ClaimConfirmation stores placeholder under key unless something is already
// there. When the claim fails the existing value is returned.
func (c *Client) ClaimConfirmation(ctx context.Context, key, placeholder string, ttl time.Duration) (bool, string, error) {
	if err := c.ready(); err != nil {
		return false, "", err
	}
	claimed, err := c.store.SetNX(ctx, key, placeholder, ttl).Result()
	if err != nil {
		return false, "", err
	}
	if claimed {
		return true, "", nil
	}
	existing, err := c.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; the next attempt will claim it.
		return false, "", nil
	}
	return false, existing, err
}

// SaveConfirmation overwrites a claim with the recorded response.
func (c *Client) SaveConfirmation(ctx context.Context, key, record string, ttl time.Duration) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Set(ctx, key, record, ttl).Err()
}

// ReleaseConfirmation drops a claim so the client can retry.
func (c *Client) ReleaseConfirmation(ctx context.Context, key string) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Del(ctx, key).Err()
}
