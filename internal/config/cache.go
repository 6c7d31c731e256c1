package config

import (
	"strings"
	"time"
)

// CacheConfig controls the Redis response cache in front of the public
// schedule-browse endpoints (class types, upcoming sessions, capacity).
// Only the listed methods are cached; KeyStrategy picks which parts of the
// request form the cache key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* environment variables.  The defaults
// suit the schedule listings: GET only, a short TTL so freshly generated
// sessions show up quickly, keys namespaced under "schedcache".
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      boolOr("CACHE_ENABLED", true),
		Methods:      methodSet(strOr("CACHE_METHODS", "GET")),
		TTL:          durOr("CACHE_TTL", 30*time.Second),
		KeyStrategy:  strOr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       strOr("CACHE_PREFIX", "schedcache"),
		MaxBodyBytes: intOr("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// methodSet turns a comma list like "GET,HEAD" into an upper-cased set.
func methodSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, m := range strings.Split(s, ",") {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			set[m] = true
		}
	}
	return set
}
