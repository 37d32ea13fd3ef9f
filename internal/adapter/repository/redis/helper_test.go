package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient returns a client bound to a fresh in-memory server.
// Both are closed when the test ends.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr:       mr.Addr(),
		ClientName: "custbalance-test",
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}
