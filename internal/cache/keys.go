package cache

import (
	"strings"
	"time"

	"github.com/aurisvision/monad-trading-bot-sub003/internal/config"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/engine"
)

// Namespace is the Redis key prefix for the trading bot.
const Namespace = "monbot"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// categoryClasses maps each engine cache category onto a TTL bucket. Balance
// entries go stale the moment a trade lands, so they get the short class;
// account identity rows barely change and sit in the long class.
var categoryClasses = map[engine.Category]TTLClass{
	engine.CacheAccount:    TTLLong,
	engine.CacheSettings:   TTLLong,
	engine.CacheWalletWarm: TTLMedium,
	engine.CacheBalance:    TTLShort,
	engine.CacheAssetMeta:  TTLMedium,
	engine.CachePortfolio:  TTLMedium,
	engine.CacheUserStats:  TTLLong,
}

// CategoryKey renders the namespaced Redis key for a category entry.
func CategoryKey(category engine.Category, key string) string {
	return formatKey(string(category), key)
}

// CategoryTTL returns the configured duration for a category. Unknown
// categories fall back to the short class so a typo never pins data.
func CategoryTTL(ttl TTLSet, category engine.Category) time.Duration {
	class, ok := categoryClasses[category]
	if !ok {
		class = TTLShort
	}
	return ttl.Duration(class)
}

// --- Session Keys -----------------------------------------------------------

// SessionKey holds the serialized conversation record for one user.
func SessionKey(userID string) string {
	return formatKey("session", userID)
}

// FormatCacheKey is exported for dynamic key construction when patterns are
// not covered by helpers.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}
