package cache

import (
	"fmt"
	"strings"
	"time"
)

const (
	HashtagKeyPrefix = "hashtag:%s"
)

const (
	// HashtagTTL bounds how long a name to ID mapping is served from cache.
	HashtagTTL = 30 * time.Minute
)

// HashtagKey is the cache key for a hashtag looked up by name.
func HashtagKey(name string) string {
	return fmt.Sprintf(HashtagKeyPrefix, strings.ToLower(name))
}
