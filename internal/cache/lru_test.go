package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestStore_SetGet(t *testing.T) {
	s := NewStore()
	s.Set("a", 42, time.Minute)

	v, ok := s.Get("a")
	if !ok {
		t.Fatal("expected hit")
	}
	if v.(int) != 42 {
		t.Fatalf("got %v, want 42", v)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatal("unexpected hit for missing key")
	}
}

func TestStore_ExpiryHasAndGetAgree(t *testing.T) {
	clock := newClock()
	s := NewStore(WithClock(clock.Now))
	s.Set("k", "v", time.Second)

	if !s.Has("k") {
		t.Fatal("fresh entry should be present")
	}

	clock.Advance(1100 * time.Millisecond)

	if s.Has("k") {
		t.Fatal("Has should report expired entry as absent")
	}
	if _, ok := s.Get("k"); ok {
		t.Fatal("Get should report expired entry as absent")
	}
	if s.Size() != 0 {
		t.Fatalf("expired entry should be evicted on read, size=%d", s.Size())
	}
}

func TestStore_Overwrite(t *testing.T) {
	clock := newClock()
	s := NewStore(WithClock(clock.Now))
	s.Set("k", 1, time.Second)
	s.Set("k", 2, time.Hour)

	clock.Advance(2 * time.Second)

	v, ok := s.Get("k")
	if !ok || v.(int) != 2 {
		t.Fatalf("overwrite should replace value and ttl, got %v %v", v, ok)
	}
	if s.Size() != 1 {
		t.Fatalf("size = %d, want 1", s.Size())
	}
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	s.Set("k", 1, time.Minute)

	if !s.Delete("k") {
		t.Fatal("Delete should report removed key")
	}
	if s.Delete("k") {
		t.Fatal("second Delete should report false")
	}
}

func TestStore_DeletePattern(t *testing.T) {
	s := NewStore()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	s.Set(OverviewKey("u1", start, end), 1, time.Minute)
	s.Set(MonthlyKey("u1", 2024, time.January), 2, time.Minute)
	s.Set(BudgetInsightsKey("u1"), 3, time.Minute)
	s.Set(OverviewKey("u2", start, end), 4, time.Minute)
	s.Set(MonthlyKey("u10", 2024, time.January), 5, time.Minute)

	removed := s.DeletePattern(UserPattern("u1"))
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}
	if !s.Has(OverviewKey("u2", start, end)) {
		t.Error("other user's entry must survive")
	}
	if !s.Has(MonthlyKey("u10", 2024, time.January)) {
		t.Error("prefix-similar user id must survive")
	}
}

func TestUserPattern_NoCrossUserMatches(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name  string
		owner string
		other string
	}{
		{"id equal to a key word", "insights", "u2"},
		{"id matching time digits", "00", "u2"},
		{"id with separator", "a:b", "b"},
		{"id with wildcard", "*", "u2"},
		{"id with escape char", "a%3Ab", "a:b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.Set(BudgetInsightsKey(tt.other), 1, time.Minute)
			s.Set(OverviewKey(tt.other, start, end), 2, time.Minute)
			s.Set(BudgetProgressKey(tt.other, tt.owner, start), 3, time.Minute)
			s.Set(ReportKey(tt.other, start, end, "date", true, true, []string{":u=" + tt.owner + ":"}), 4, time.Minute)
			s.Set(OverviewKey(tt.owner, start, end), 5, time.Minute)

			if removed := s.DeletePattern(UserPattern(tt.owner)); removed != 1 {
				t.Fatalf("removed = %d, want only the owner's entry", removed)
			}
			if s.Size() != 4 {
				t.Errorf("size = %d, want 4 surviving entries", s.Size())
			}
		})
	}
}

func TestStore_DeletePatternQuotesMeta(t *testing.T) {
	s := NewStore()
	s.Set("a.b:1", 1, time.Minute)
	s.Set("axb:1", 1, time.Minute)

	if n := s.DeletePattern("a.b:*"); n != 1 {
		t.Fatalf("'.' must be literal, removed %d", n)
	}
	if !s.Has("axb:1") {
		t.Fatal("axb:1 should remain")
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.Set(fmt.Sprintf("k%d", i), i, time.Minute)
	}
	s.Clear()
	if s.Size() != 0 {
		t.Fatalf("size after clear = %d", s.Size())
	}
}

func TestStore_CleanExpired(t *testing.T) {
	clock := newClock()
	s := NewStore(WithClock(clock.Now))
	s.Set("short1", 1, time.Second)
	s.Set("short2", 2, time.Second)
	s.Set("long", 3, time.Hour)

	clock.Advance(5 * time.Second)

	if cleaned := s.CleanExpired(); cleaned != 2 {
		t.Fatalf("cleaned = %d, want 2", cleaned)
	}
	if s.Size() != 1 || !s.Has("long") {
		t.Fatal("only the long-lived entry should remain")
	}
}

func TestStore_MaxEntriesEvictsLeastRecentlyUsed(t *testing.T) {
	s := NewStore(WithMaxEntries(2))
	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)
	s.Get("a") // a is now most recent
	s.Set("c", 3, time.Minute)

	if s.Has("b") {
		t.Error("b should have been evicted")
	}
	if !s.Has("a") || !s.Has("c") {
		t.Error("a and c should remain")
	}
}

func TestGetOrSet(t *testing.T) {
	s := NewStore()
	calls := 0
	factory := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrSet(context.Background(), s, "k", time.Minute, factory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 7 {
			t.Fatalf("v = %d", v)
		}
	}
	if calls != 1 {
		t.Fatalf("factory calls = %d, want 1", calls)
	}
}

func TestGetOrSet_ErrorNotCached(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")

	_, err := GetOrSet(context.Background(), s, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if s.Has("k") {
		t.Fatal("failed computation must not be cached")
	}
}

func TestGetOrSet_NilStore(t *testing.T) {
	v, err := GetOrSet(context.Background(), nil, "k", time.Minute, func(context.Context) (string, error) {
		return "direct", nil
	})
	if err != nil || v != "direct" {
		t.Fatalf("got %q, %v", v, err)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore(WithMaxEntries(50))
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("analytics:x:u%d:%d", g%3, i%20)
				s.Set(key, i, time.Minute)
				s.Get(key)
				if i%50 == 0 {
					s.DeletePattern(UserPattern(fmt.Sprintf("u%d", g%3)))
				}
				s.CleanExpired()
			}
		}(g)
	}
	wg.Wait()
	if s.Size() > 50 {
		t.Fatalf("size %d exceeds bound", s.Size())
	}
}
