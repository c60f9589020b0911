package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestDedupStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewDedupStore(New(mr.Addr()), "momo-ipn")
	ctx := context.Background()

	seen, err := store.Seen(ctx, "123")
	if err != nil || seen {
		t.Fatalf("Seen() = %v, %v before Mark", seen, err)
	}
	if err := store.Mark(ctx, "123"); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	seen, err = store.Seen(ctx, "123")
	if err != nil || !seen {
		t.Fatalf("Seen() = %v, %v after Mark", seen, err)
	}

	if ttl := mr.TTL("dedup:momo-ipn:123"); ttl != TTLDedup {
		t.Errorf("ttl = %v, want %v", ttl, TTLDedup)
	}

	mr.FastForward(TTLDedup + time.Second)
	if seen, _ := store.Seen(ctx, "123"); seen {
		t.Error("key still present after ttl")
	}
}

func TestDedupStoreIgnoresEmptyIDs(t *testing.T) {
	var nilStore *DedupStore
	if seen, err := nilStore.Seen(context.Background(), "1"); seen || err != nil {
		t.Errorf("nil store Seen() = %v, %v", seen, err)
	}

	mr := miniredis.RunT(t)
	store := NewDedupStore(New(mr.Addr()), "momo-ipn")
	if err := store.Mark(context.Background(), ""); err != nil {
		t.Fatalf("Mark(\"\") error = %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("keys = %v, want none", mr.Keys())
	}
}
