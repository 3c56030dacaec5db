package cache

import (
	"log"
	"sync"

	"github.com/dgraph-io/ristretto"
)

var once sync.Once

var globalCache *ristretto.Cache

func Init() {
	once.Do(func() {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e4,
			MaxCost:     1 << 24,
			BufferItems: 64,
		})
		if err != nil {
			log.Fatalf("cache.Init: err = %s", err)
		}
		globalCache = cache
	})
}

func Cache() *ristretto.Cache {
	return globalCache
}
