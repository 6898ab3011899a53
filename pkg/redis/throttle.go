package redis

import (
	"context"
	"strconv"
	"time"
)

const throttlePrefix = "throttle"

// WindowAllow counts one hit for subject in the current fixed window of the
// named bucket and reports whether the count is within limit. Each window
// gets its own key so counters never need resetting.
func (c *Client) WindowAllow(ctx context.Context, bucket, subject string, limit int64, window time.Duration) (bool, int64, error) {
	if err := c.ready(); err != nil {
		return false, 0, err
	}
	k := windowKey(bucket, subject, window, time.Now())
	count, err := c.store.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := c.store.Expire(ctx, k, window).Err(); err != nil {
			return true, count, err
		}
	}
	return count <= limit, count, nil
}

func windowKey(bucket, subject string, window time.Duration, now time.Time) string {
	start := now.Truncate(window).Unix()
	return key(throttlePrefix, bucket, subject, strconv.FormatInt(start, 10))
}
