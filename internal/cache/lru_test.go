// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestLRU(capacity int, ttl time.Duration) (*LRU[string], *time.Time) {
	c := NewLRU[string](capacity, ttl)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRU_GetAdd(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() found a missing key")
	}
	if !c.Add("a", "1", c.Generation()) {
		t.Fatal("Add() rejected the current generation")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	c.Add("a", "2", c.Generation())
	if v, _ := c.Get("a"); v != "2" {
		t.Errorf("Get(a) after update = %q", v)
	}

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d, %d, %d", hits, misses, size)
	}
}

func TestLRU_Eviction(t *testing.T) {
	c, _ := newTestLRU(3, time.Minute)
	gen := c.Generation()
	for i := 0; i < 3; i++ {
		c.Add(fmt.Sprint(i), fmt.Sprint(i), gen)
	}

	// Touch 0 so 1 becomes the oldest.
	c.Get("0")
	c.Add("3", "3", gen)

	if _, ok := c.Get("1"); ok {
		t.Error("least recently used entry was not evicted")
	}
	for _, key := range []string{"0", "2", "3"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("entry %s was evicted", key)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRU_TTL(t *testing.T) {
	c, now := newTestLRU(10, time.Minute)
	gen := c.Generation()
	c.Add("a", "1", gen)
	*now = now.Add(30 * time.Second)
	c.Add("b", "2", gen)

	*now = now.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("live entry missing")
	}

	*now = now.Add(time.Minute)
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after cleanup", c.Len())
	}
}

func TestLRU_PurgeGeneration(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)
	stale := c.Generation()
	c.Add("a", "old", stale)

	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Purge", c.Len())
	}
	if c.Add("a", "old", stale) {
		t.Error("Add() stored a value loaded before the purge")
	}
	if !c.Add("a", "new", c.Generation()) {
		t.Error("Add() rejected the new generation")
	}
	if v, _ := c.Get("a"); v != "new" {
		t.Errorf("Get(a) = %q, want new", v)
	}
	if !c.Remove("a") || c.Remove("a") {
		t.Error("Remove() did not report presence correctly")
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](100, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprint(i % 150)
				c.Add(key, i, c.Generation())
				c.Get(key)
				if i%100 == 0 && g == 0 {
					c.Purge()
				}
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 100 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
