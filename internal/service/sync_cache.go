// sync_cache.go — LRU-кэш результатов синхронизации пользователей с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	syncCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tm_sync_cache_hits_total",
		Help: "Общее количество попаданий в кэш синхронизации пользователей.",
	})
	syncCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tm_sync_cache_misses_total",
		Help: "Общее количество промахов кэша синхронизации пользователей.",
	})
)

type syncEntry struct {
	user        *model.User
	fingerprint string
}

// SyncCache хранит последнего синхронизированного пользователя и отпечаток
// claims, из которых он получен. Повторный запрос с тем же отпечатком
// не обращается к БД. nil *SyncCache — кэш отключён.
type SyncCache struct {
	cache *expirable.LRU[string, syncEntry]
}

// NewSyncCache создаёт кэш на maxSize записей с временем жизни ttl.
// При maxSize <= 0 возвращает nil (кэширование отключено).
func NewSyncCache(maxSize int, ttl time.Duration) *SyncCache {
	if maxSize <= 0 {
		return nil
	}
	return &SyncCache{cache: expirable.NewLRU[string, syncEntry](maxSize, nil, ttl)}
}

// Get возвращает копию пользователя, если для subject сохранён тот же отпечаток.
func (c *SyncCache) Get(subject, fingerprint string) (*model.User, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.cache.Get(subject)
	if ok && e.fingerprint == fingerprint {
		syncCacheHitsTotal.Inc()
		return e.user.Clone(), true
	}
	syncCacheMissesTotal.Inc()
	return nil, false
}

// Put сохраняет копию пользователя.
func (c *SyncCache) Put(subject, fingerprint string, u *model.User) {
	if c == nil || u == nil {
		return
	}
	c.cache.Add(subject, syncEntry{user: u.Clone(), fingerprint: fingerprint})
}

// Invalidate удаляет запись subject (при удалении пользователя).
func (c *SyncCache) Invalidate(subject string) {
	if c == nil {
		return
	}
	c.cache.Remove(subject)
}

// Len возвращает количество записей.
func (c *SyncCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}

// fingerprint собирает значения, влияющие на результат синхронизации.
func fingerprint(parts ...string) string {
	return strings.Join(parts, "\x1f")
}
