package joblock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cadlink/pkg/domain"
)

// releaseScript deletes the lock key only when the holder token matches, so
// a job whose lock expired cannot release a successor's lock.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// RedisLocker coordinates jobs across workers through a token-checked
// SET NX lease. TTL bounds how long a crashed worker can wedge a project.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) key(projectID domain.ProjectID) string {
	return "cadlink:joblock:" + projectID.String()
}

func (l *RedisLocker) Acquire(ctx context.Context, projectID domain.ProjectID) (Release, error) {
	token := uuid.NewString()
	key := l.key(projectID)

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire redis lock: %w", err)
	}
	if !acquired {
		return nil, ErrProjectBusy
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release redis lock: %w", err)
		}
		return nil
	}
	return release, nil
}
