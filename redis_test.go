package collcache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redisstore "github.com/unkn0wn-root/collcache/store/redis"
)

// End to end against a redis server: key layout, index TTL and delete.
func TestCollectionOnRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	st, err := redisstore.New(redisstore.Config{
		Client:      goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
		CloseClient: true,
	})
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}

	source := []widget{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}}
	c, err := New(Options[widget]{
		Store:         st,
		CollectionKey: "Widgets",
		Expiration:    time.Hour,
		Fallback:      Static(source...),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close(ctx)

	got := mustExec(t, c.Read())
	if !reflect.DeepEqual(got, source) {
		t.Fatalf("Read: %v", got)
	}
	if !mr.Exists("Widgets:1") || !mr.Exists("Widgets:2") {
		t.Fatalf("item keys missing: %v", mr.Keys())
	}
	if ttl := mr.TTL("Widgets"); ttl != time.Hour {
		t.Fatalf("index ttl: %s", ttl)
	}
	if ttl := mr.TTL("Widgets:1"); ttl != 0 {
		t.Fatalf("item key must not expire, ttl %s", ttl)
	}

	mustExec(t, c.Delete().ID("2"))
	if mr.Exists("Widgets:2") {
		t.Fatalf("deleted item key still exists")
	}
	if got := mustExec(t, c.Read()); !reflect.DeepEqual(got, source[:1]) {
		t.Fatalf("Read after delete: %v", got)
	}

	// index expiry triggers re-initialization
	mr.FastForward(2 * time.Hour)
	if got := mustExec(t, c.Read()); !reflect.DeepEqual(got, source) {
		t.Fatalf("Read after expiry: %v", got)
	}
}
