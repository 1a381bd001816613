package config

import (
	"context"
	"fmt"

	"github.com/matzehuels/trazo/pkg/blob"
	"github.com/matzehuels/trazo/pkg/cache"
)

// OpenBlobs opens the configured diagram blob store.
func (c Config) OpenBlobs(ctx context.Context) (blob.Store, error) {
	s := c.Store
	switch s.Backend {
	case BackendMemory:
		return blob.NewMemory(), nil
	case BackendFile:
		return blob.NewFile(s.Dir)
	case BackendSQLite:
		return blob.NewSQLite(s.SQLitePath)
	case BackendRedis:
		return blob.NewRedis(ctx, s.RedisAddr, s.RedisPassword, s.RedisDB, AppName+":")
	case BackendMongo:
		return blob.NewMongo(ctx, s.MongoURI, s.MongoDatabase, blob.DefaultMongoCollection)
	}
	return nil, fmt.Errorf("unknown store backend %q", s.Backend)
}

// OpenCache opens the configured stage cache.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendFile:
		return cache.NewFileCache(c.Cache.Dir)
	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.Cache.RedisAddr, Prefix: AppName + ":cache:"})
	}
	return nil, fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
}
