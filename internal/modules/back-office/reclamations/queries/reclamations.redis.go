package queries

import (
	"context"
	"fmt"
	"strconv"

	redisInfra "sofimed-core/internal/infrastructure/database/redis"

	"github.com/redis/go-redis/v9"
)

// raiseTo place le compteur à ARGV[1] s'il est absent ou inférieur; jamais de recul
var raiseTo = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call('SET', KEYS[1], ARGV[1])
	return floor
end
return current
`)

// SequenceFloor fournit le plus grand numéro déjà stocké pour une année
type SequenceFloor interface {
	MaxReferenceSeq(ctx context.Context, year int) (int64, error)
}

// ReclamationSequence compteur INCR par année, sans expiration.
// Une clé absente (flush, éviction, Redis sans persistance) est réamorcée depuis MongoDB.
type ReclamationSequence struct {
	redisClient *redisInfra.Client
	floor       SequenceFloor
}

func NewReclamationSequence(redisClient *redisInfra.Client, store *ReclamationMongoStore) *ReclamationSequence {
	return &ReclamationSequence{redisClient: redisClient, floor: store}
}

func (s *ReclamationSequence) key(year int) string {
	return s.redisClient.Keys().MustKey("sequence_reclamation", strconv.Itoa(year))
}

func (s *ReclamationSequence) Next(ctx context.Context, year int) (int64, error) {
	key := s.key(year)
	exists, err := s.redisClient.Client().Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		if err := s.Resync(ctx, year); err != nil {
			return 0, err
		}
	}
	return s.redisClient.Client().Incr(ctx, key).Result()
}

func (s *ReclamationSequence) Resync(ctx context.Context, year int) error {
	max, err := s.floor.MaxReferenceSeq(ctx, year)
	if err != nil {
		return fmt.Errorf("plus grande référence %d: %w", year, err)
	}
	return raiseTo.Run(ctx, s.redisClient.Client(), []string{s.key(year)}, max).Err()
}
