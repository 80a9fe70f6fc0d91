package cache

import (
	"strings"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	if _, ok := c.Get("yok"); ok {
		t.Error("missing key should return false")
	}

	c.Set("a", 42)
	if v, ok := c.Get("a"); !ok || v != 42 {
		t.Errorf("Get(a) = %d/%v, want 42/true", v, ok)
	}
}

func TestExpiry(t *testing.T) {
	c := New[string, bool](20*time.Millisecond, time.Minute)
	defer c.Close()

	c.Set("a", true)
	time.Sleep(40 * time.Millisecond)

	// Fiziksel temizlik beklenmeden bile stale entry dönmez
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestEvictExpiredShrinksMap(t *testing.T) {
	c := New[string, bool](10*time.Millisecond, 20*time.Millisecond)
	defer c.Close()

	c.Set("a", true)
	c.Set("b", true)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Len() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("cleanup did not evict expired entries, len = %d", c.Len())
}

func TestDeleteFunc(t *testing.T) {
	c := New[string, bool](time.Minute, time.Minute)
	defer c.Close()

	c.Set("s1:u1", true)
	c.Set("s1:u2", true)
	c.Set("s2:u1", true)

	// Tek sunucunun tüm üyelik entry'lerini düşür
	c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, "s1:")
	})

	if _, ok := c.Get("s1:u1"); ok {
		t.Error("s1:u1 should be invalidated")
	}
	if _, ok := c.Get("s1:u2"); ok {
		t.Error("s1:u2 should be invalidated")
	}
	if _, ok := c.Get("s2:u1"); !ok {
		t.Error("s2:u1 should survive")
	}
}

func TestOverwriteRefreshesTTL(t *testing.T) {
	c := New[string, int](50*time.Millisecond, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	time.Sleep(30 * time.Millisecond)
	c.Set("a", 2)
	time.Sleep(30 * time.Millisecond)

	// İlk yazımın TTL'i geçti ama ikinci yazım taze
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d/%v, want 2/true", v, ok)
	}
}
