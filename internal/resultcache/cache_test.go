package resultcache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), mr.Addr(), ttl)
	if err != nil {
		t.Fatalf("cache setup: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetPut_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	sql := "SELECT x FROM t WHERE a = 'b'"

	if _, ok := c.Get(ctx, sql); ok {
		t.Fatalf("hit before put")
	}

	rows := []map[string]any{{"x": "1"}, {"x": nil}}
	if err := c.Put(ctx, sql, rows); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := c.Get(ctx, sql)
	if !ok {
		t.Fatalf("miss after put")
	}
	if len(got) != 2 || got[0]["x"] != "1" || got[1]["x"] != nil {
		t.Fatalf("rows=%v", got)
	}
}

func TestGet_ExpiresWithTTL(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()
	sql := "SELECT 1"

	if err := c.Put(ctx, sql, []map[string]any{{"a": float64(1)}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := mr.TTL(Key(sql)); got != 30*time.Second {
		t.Fatalf("ttl=%v want 30s", got)
	}

	mr.FastForward(time.Minute)
	if _, ok := c.Get(ctx, sql); ok {
		t.Fatalf("hit after expiry")
	}
}

func TestGet_CorruptEntryDegradesToMiss(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	sql := "SELECT 1"

	if err := mr.Set(Key(sql), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := c.Get(context.Background(), sql); ok {
		t.Fatalf("corrupt entry returned as hit")
	}
}

func TestKey_WhitespaceNormalization(t *testing.T) {
	a := Key("SELECT  x\n\tFROM   t")
	b := Key("SELECT x FROM t")
	if a != b {
		t.Fatalf("formatting variants got different keys:\n a=%s\n b=%s", a, b)
	}
	if Key("SELECT x FROM t") == Key("SELECT y FROM t") {
		t.Fatalf("different queries share a key")
	}
	if !strings.HasPrefix(a, "sqlres:") {
		t.Fatalf("key=%s", a)
	}
}

func TestNew_UnreachableRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, "127.0.0.1:1", time.Minute); err == nil {
		t.Fatalf("connected to nothing")
	}
}
