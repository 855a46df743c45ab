package voice

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// SpeechCache keeps recently synthesized audio keyed by language & text
type SpeechCache struct {
	cache *ttlcache.Cache[string, []byte]
}

func NewSpeechCache(ttl time.Duration, capacity uint64) *SpeechCache {
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithTTL[string, []byte](ttl),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](capacity))
	}
	cache := ttlcache.New[string, []byte](opts...)

	// evicts expired lines in the background until Stop()
	go cache.Start()

	return &SpeechCache{cache: cache}
}

func (c *SpeechCache) Get(language string, text string) ([]byte, bool) {
	item := c.cache.Get(cacheKey(language, text))
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (c *SpeechCache) Set(language string, text string, audio []byte) {
	c.cache.Set(cacheKey(language, text), audio, ttlcache.DefaultTTL)
}

func (c *SpeechCache) Len() int {
	return c.cache.Len()
}

func (c *SpeechCache) Stop() {
	c.cache.Stop()
}

func cacheKey(language string, text string) string {
	return language + ":" + hashString(text)
}
