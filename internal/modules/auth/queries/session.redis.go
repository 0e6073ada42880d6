package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redisInfra "sofimed-core/internal/infrastructure/database/redis"
	"sofimed-core/internal/modules/auth/dto"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore sessions en hash Redis + index par utilisateur + blacklist
type RedisSessionStore struct {
	redisClient *redisInfra.Client
}

func NewRedisSessionStore(redisClient *redisInfra.Client) *RedisSessionStore {
	return &RedisSessionStore{redisClient: redisClient}
}

func (s *RedisSessionStore) Save(ctx context.Context, token string, session *dto.SessionData, ttl time.Duration) error {
	keys := s.redisClient.Keys()
	sessionKey := keys.MustKey("auth_session", token)
	userSessionsKey := keys.MustKey("auth_user_sessions", session.UserID)

	pipe := s.redisClient.Client().TxPipeline()
	pipe.HSet(ctx, sessionKey, session.ToMap())
	pipe.Expire(ctx, sessionKey, ttl)
	pipe.SAdd(ctx, userSessionsKey, token)
	pipe.Expire(ctx, userSessionsKey, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSessionStore) Load(ctx context.Context, token string) (*dto.SessionData, error) {
	sessionKey := s.redisClient.Keys().MustKey("auth_session", token)

	data, err := s.redisClient.Client().HGetAll(ctx, sessionKey).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, dto.ErrSessionNotFound
	}
	return dto.SessionFromMap(data), nil
}

func (s *RedisSessionStore) Touch(ctx context.Context, token string, at time.Time) error {
	sessionKey := s.redisClient.Keys().MustKey("auth_session", token)
	return s.redisClient.Client().HSet(ctx, sessionKey, "last_activity", at.Format(time.RFC3339)).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, token, userID string) error {
	keys := s.redisClient.Keys()

	pipe := s.redisClient.Client().Pipeline()
	pipe.Del(ctx, keys.MustKey("auth_session", token))
	if userID != "" {
		pipe.SRem(ctx, keys.MustKey("auth_user_sessions", userID), token)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSessionStore) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	blacklistKey := s.redisClient.Keys().MustKey("auth_blacklist", token)
	revokedAt := fmt.Sprintf("revoked_at:%s", time.Now().Format(time.RFC3339))
	return s.redisClient.Set(ctx, blacklistKey, revokedAt, ttl)
}

func (s *RedisSessionStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.redisClient.Exists(ctx, s.redisClient.Keys().MustKey("auth_blacklist", token))
}

func (s *RedisSessionStore) UserTokens(ctx context.Context, userID string) ([]string, error) {
	userSessionsKey := s.redisClient.Keys().MustKey("auth_user_sessions", userID)
	return s.redisClient.Client().SMembers(ctx, userSessionsKey).Result()
}

// RedisLoginLimiter compteur INCR + PEXPIRE atomique sur la fenêtre de rate limiting
type RedisLoginLimiter struct {
	redisClient *redisInfra.Client
}

func NewRedisLoginLimiter(redisClient *redisInfra.Client) *RedisLoginLimiter {
	return &RedisLoginLimiter{redisClient: redisClient}
}

func (l *RedisLoginLimiter) key(identifiant string) string {
	return l.redisClient.Keys().MustKey("auth_ratelimit", strings.ToLower(identifiant))
}

func (l *RedisLoginLimiter) Attempts(ctx context.Context, identifiant string) (int, time.Duration, error) {
	key := l.key(identifiant)

	attempts, err := l.redisClient.Client().Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	ttl, err := l.redisClient.Client().TTL(ctx, key).Result()
	if err != nil {
		return attempts, 0, nil
	}
	return attempts, ttl, nil
}

// registerFailure incrémente et pose la fenêtre en une seule opération;
// une clé restée sans TTL reçoit aussi la fenêtre
var registerFailure = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

func (l *RedisLoginLimiter) RegisterFailure(ctx context.Context, identifiant string, window time.Duration) error {
	return registerFailure.Run(ctx, l.redisClient.Client(), []string{l.key(identifiant)}, window.Milliseconds()).Err()
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, identifiant string) error {
	return l.redisClient.Del(ctx, l.key(identifiant))
}

// RedisPermissionCache codes de permission sérialisés en JSON
type RedisPermissionCache struct {
	redisClient *redisInfra.Client
}

func NewRedisPermissionCache(redisClient *redisInfra.Client) *RedisPermissionCache {
	return &RedisPermissionCache{redisClient: redisClient}
}

func (c *RedisPermissionCache) Get(ctx context.Context, userID string) ([]string, bool) {
	raw, err := c.redisClient.Get(ctx, c.redisClient.Keys().MustKey("auth_permissions", userID))
	if err != nil {
		// Redis indisponible ou clé absente : fallback PostgreSQL
		return nil, false
	}

	var codes []string
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, false
	}
	return codes, true
}

func (c *RedisPermissionCache) Set(ctx context.Context, userID string, codes []string, ttl time.Duration) error {
	return c.redisClient.SetJSON(ctx, c.redisClient.Keys().MustKey("auth_permissions", userID), codes, ttl)
}

func (c *RedisPermissionCache) Invalidate(ctx context.Context, userID string) error {
	return c.redisClient.Del(ctx, c.redisClient.Keys().MustKey("auth_permissions", userID))
}
