package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "store_locator/internal/adapters/redis"
	"store_locator/internal/domain"
)

func newCache(t *testing.T) *redisad.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	return redisad.New(mr.Addr(), "", 0)
}

func TestCache_RoundTrip(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	pt := domain.GeoPoint{Lat: 38.4784, Lng: -82.6379}
	if err := c.Set(ctx, "geo:ashland, ky", pt, 900); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got domain.GeoPoint
	ok, err := c.Get(ctx, "geo:ashland, ky", &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != pt {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCache_MissAndDelete(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	var got domain.GeoPoint
	ok, err := c.Get(ctx, "geo:unknown", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss for unknown key")
	}

	if err := c.Set(ctx, "geo:x", domain.GeoPoint{Lat: 1}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Del(ctx, "geo:x"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "geo:x", &got); ok {
		t.Fatal("expected miss after delete")
	}
}
