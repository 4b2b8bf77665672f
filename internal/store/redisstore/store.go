package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const biStatsKey = "bi:stats"

type Store struct {
	Client *redis.Client
}

func NewStore(addr, password string, db int) *Store {
	return &Store{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *Store) GetBIStats(ctx context.Context) ([]byte, error) {
	b, err := s.Client.Get(ctx, biStatsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return b, err
}

func (s *Store) SetBIStats(ctx context.Context, payload []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, biStatsKey, payload, ttl).Err()
}

func (s *Store) Close() error {
	return s.Client.Close()
}
