package trigger

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecentFinals guarda os jogos recém-finalizados em chaves Redis com
// TTL, compartilhadas entre instâncias do worker.
type RedisRecentFinals struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisRecentFinals(c *redis.Client, ttl time.Duration) *RedisRecentFinals {
	return &RedisRecentFinals{Client: c, TTL: ttl}
}

const recentPrefix = "settlement:final:"

// Known lista os jogos ainda dentro da janela de retenção.
func (r *RedisRecentFinals) Known(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.Client.Scan(ctx, 0, recentPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(recentPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Mark registra um jogo finalizado; a chave expira sozinha após o TTL.
func (r *RedisRecentFinals) Mark(ctx context.Context, gameID string) error {
	return r.Client.Set(ctx, recentPrefix+gameID, "1", r.TTL).Err()
}
