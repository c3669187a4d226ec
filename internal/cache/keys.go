package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	TagListKeyPrefix   = "tags:list:"
	SummaryKeyPrefix   = "summary:%d:%d"
	BlacklistKeyPrefix = "blacklist:%s"
)

const (
	UserTTL    = 5 * time.Minute
	TagListTTL = 10 * time.Minute
	SummaryTTL = 24 * time.Hour
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// TagListKey identifies one page of the tag listing.
func TagListKey(search string, page, limit int) string {
	return fmt.Sprintf("%s%s:%d:%d", TagListKeyPrefix, strings.ToLower(strings.TrimSpace(search)), page, limit)
}

// SummaryKey is versioned by the post's UpdatedAt so edits miss the cache.
func SummaryKey(postID uint, updatedAt time.Time) string {
	return fmt.Sprintf(SummaryKeyPrefix, postID, updatedAt.UnixNano())
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePattern deletes every key matching pattern using SCAN.
func InvalidatePattern(ctx context.Context, pattern string) error {
	if client == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete %s: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// InvalidateTagLists drops every cached tag listing page.
func InvalidateTagLists(ctx context.Context) error {
	return InvalidatePattern(ctx, TagListKeyPrefix+"*")
}

// Blacklist marks a token ID as revoked until ttl elapses.
func Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsBlacklisted reports whether jti was revoked. Without Redis nothing is revoked.
func IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
