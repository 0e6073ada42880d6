package queries

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	redisInfra "sofimed-core/internal/infrastructure/database/redis"

	"github.com/redis/go-redis/v9"
)

// recordingHook intercepte les commandes sans serveur Redis
type recordingHook struct {
	commands [][]interface{}
}

func (h *recordingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *recordingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands = append(h.commands, cmd.Args())
		if c, ok := cmd.(*redis.Cmd); ok {
			c.SetVal(int64(1))
		}
		return nil
	}
}

func (h *recordingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			h.commands = append(h.commands, cmd.Args())
		}
		return nil
	}
}

func newRecordingLimiter(t *testing.T) (*RedisLoginLimiter, *recordingHook) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })
	hook := &recordingHook{}
	rdb.AddHook(hook)
	client := redisInfra.NewFromRDB(rdb, redisInfra.NewRedisKeyGenerator("test"))
	return NewRedisLoginLimiter(client), hook
}

func TestRegisterFailureIsSingleAtomicCommand(t *testing.T) {
	limiter, hook := newRecordingLimiter(t)

	if err := limiter.RegisterFailure(context.Background(), "Ali@Sofimed.ma", 15*time.Minute); err != nil {
		t.Fatalf("register failure: %v", err)
	}

	if len(hook.commands) != 1 {
		t.Fatalf("expected one command, got %v", hook.commands)
	}
	args := hook.commands[0]
	if name := strings.ToLower(fmt.Sprint(args[0])); name != "evalsha" && name != "eval" {
		t.Fatalf("expected a script call, got %v", args)
	}
	if key := fmt.Sprint(args[3]); key != "sofimed_test_auth_ratelimit:ali@sofimed.ma" {
		t.Fatalf("unexpected key %s", key)
	}
	if window := fmt.Sprint(args[4]); window != "900000" {
		t.Fatalf("expected window in milliseconds, got %s", window)
	}
}
