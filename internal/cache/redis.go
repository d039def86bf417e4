package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vehement/geoworld/internal/geo"
)

// RedisConfig configures the optional shared Redis tier.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore is a remote tile tier shared between game sessions. It sits
// behind the disk tier and is consulted last before going to a provider.
type RedisStore struct {
	client *redis.Client
	codec  codec
	ttl    time.Duration
}

func NewRedisStore(cfg RedisConfig, compress bool) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &RedisStore{
		client: client,
		codec:  codec{compress: compress},
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) keyFor(tile geo.TileID) string {
	return fmt.Sprintf("tile:%d:%d:%d", tile.Zoom, tile.X, tile.Y)
}

func (s *RedisStore) Load(tile geo.TileID) (geo.TileData, error) {
	payload, err := s.client.Get(context.Background(), s.keyFor(tile)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return geo.TileData{}, ErrNotFound
		}
		return geo.TileData{}, fmt.Errorf("redis get error: %w", err)
	}

	return s.codec.decode(payload)
}

func (s *RedisStore) Save(tile geo.TileID, payload []byte) error {
	err := s.client.Set(context.Background(), s.keyFor(tile), payload, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
