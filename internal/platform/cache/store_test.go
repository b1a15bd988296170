package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStoreSetGet(t *testing.T) {
	s := NewStore(time.Minute)
	ctx := context.Background()

	s.Set(ctx, "roster", []string{"a", "b"})
	got, ok := s.Get(ctx, "roster")
	if !ok {
		t.Fatal("expected cached value")
	}
	if names, _ := got.([]string); len(names) != 2 {
		t.Fatalf("unexpected value: %v", got)
	}

	if _, ok := s.Get(ctx, "missing"); ok {
		t.Fatal("missing key should not be found")
	}
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	ctx := context.Background()

	s.Set(ctx, "k", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("expired entry should be evicted")
	}
}

func TestStoreGetOrLoadLoadsOnce(t *testing.T) {
	s := NewStore(time.Minute)
	ctx := context.Background()
	var loads atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.GetOrLoad(ctx, "teams", func(context.Context) (any, error) {
				loads.Add(1)
				time.Sleep(5 * time.Millisecond)
				return "loaded", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if got != "loaded" {
				t.Errorf("unexpected value: %v", got)
			}
		}()
	}
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("expected one load, got %d", got)
	}
}

func TestStoreGetOrLoadPropagatesError(t *testing.T) {
	s := NewStore(time.Minute)
	wantErr := errors.New("load failed")

	_, err := s.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected load error, got %v", err)
	}

	if _, ok := s.Get(context.Background(), "k"); ok {
		t.Fatal("failed load must not populate the cache")
	}
}

func TestStoreDeletePrefix(t *testing.T) {
	s := NewStore(time.Minute)
	ctx := context.Background()

	s.Set(ctx, "roster:a", 1)
	s.Set(ctx, "roster:b", 2)
	s.Set(ctx, "sessions", 3)
	s.DeletePrefix(ctx, "roster:")

	if _, ok := s.Get(ctx, "roster:a"); ok {
		t.Fatal("prefixed entry should be gone")
	}
	if _, ok := s.Get(ctx, "sessions"); !ok {
		t.Fatal("unrelated entry should survive")
	}
}
