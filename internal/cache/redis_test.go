package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/badursun/Roqua-sub000/internal/logger"
	"github.com/badursun/Roqua-sub000/internal/models"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisPlaceCacheDegradesToMiss(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	c := NewRedisPlaceCache(client, 0, logger.Discard())
	ctx := context.Background()
	c.Set(ctx, "geo:sxk973m", models.Place{City: "Istanbul"})
	if _, ok := c.Get(ctx, "geo:sxk973m"); ok {
		t.Error("unreachable redis should report a miss")
	}
	if c.ttl != DefaultPlaceTTL {
		t.Errorf("ttl = %v", c.ttl)
	}
}

func TestOpen(t *testing.T) {
	client, err := Open(context.Background(), "")
	if client != nil || err != nil {
		t.Errorf("empty url = %v, %v", client, err)
	}
	if _, err := Open(context.Background(), "not a url"); err == nil {
		t.Error("expected parse error")
	}
}
