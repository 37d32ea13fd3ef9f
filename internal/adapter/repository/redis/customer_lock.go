package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iho/custbalance/internal/domain"
)

// ErrLockNotHeld is returned on release when the lock expired or was taken
// over by another holder.
var ErrLockNotHeld = errors.New("lock no longer held")

var errLockBusy = errors.New("lock busy")

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CustomerLock implements usecase.Locker using Redis SET NX PX.
type CustomerLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// NewCustomerLock creates a new CustomerLock. Locks expire after ttl; Lock
// waits up to wait for a busy key. A non-positive wait tries exactly once.
func NewCustomerLock(client *redis.Client, ttl, wait time.Duration) *CustomerLock {
	return &CustomerLock{
		client: client,
		prefix: "lock:",
		ttl:    ttl,
		wait:   wait,
	}
}

// Lock acquires key, polling with backoff while another holder has it.
func (l *CustomerLock) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	fullKey := l.prefix + key
	token := ulid.Make().String()

	var b backoff.BackOff = &backoff.StopBackOff{}
	if l.wait > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 25 * time.Millisecond
		eb.MaxInterval = 250 * time.Millisecond
		eb.MaxElapsedTime = l.wait
		b = eb
	}

	err := backoff.Retry(func() error {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errLockBusy
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if errors.Is(err, errLockBusy) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCustomerLocked, key)
		}
		return nil, err
	}

	unlock := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrLockNotHeld, key)
		}
		return nil
	}

	return unlock, nil
}
