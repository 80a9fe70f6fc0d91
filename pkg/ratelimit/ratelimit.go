// Package ratelimit — in-memory sliding window rate limiter.
//
// İki kullanım noktası vardır:
// - Login: IP bazlı brute-force koruması (NewLoginLimiter).
// - Mesaj: kullanıcı bazlı spam koruması, cooldown cezalı (NewMessageLimiter).
//
// Neden in-memory?
// Tek instance deploy'da Redis bağımlılığı gereksizdir; SQLite'a her
// request'te yazmak I/O ve contention yaratır. sync.Mutex yeterli.
//
// Paket hiçbir proje içi pakete bağımlı değildir (leaf dependency) —
// handlers ↔ middleware arasında import cycle oluşmaz.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// window başına sayaç; cooldownUntil doluysa limiter ceza modundadır.
type bucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time
}

// Limiter, key bazlı sliding window rate limiter.
//
// cooldown sıfırsa limit aşımında sadece kalan window süresi beklenir
// (login modu). Sıfır değilse limit aşımı cooldown süresi boyunca tüm
// istekleri reddeder (mesaj modu).
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	max      int
	window   time.Duration
	cooldown time.Duration
	stop     chan struct{}
}

// NewLoginLimiter, IP bazlı login limiter'ı oluşturur.
// Örn: NewLoginLimiter(5, 2*time.Minute) → 2 dakikada 5 deneme.
func NewLoginLimiter(maxAttempts int, window time.Duration) *Limiter {
	return newLimiter(maxAttempts, window, 0)
}

// NewMessageLimiter, kullanıcı bazlı mesaj limiter'ı oluşturur.
// Örn: NewMessageLimiter(5, 5*time.Second, 15*time.Second) →
// 5 saniyede 5 mesaj, aşımda 15 saniye cooldown.
func NewMessageLimiter(maxMessages int, window, cooldown time.Duration) *Limiter {
	return newLimiter(maxMessages, window, cooldown)
}

func newLimiter(max int, window, cooldown time.Duration) *Limiter {
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		max:      max,
		window:   window,
		cooldown: cooldown,
		stop:     make(chan struct{}),
	}

	// Süresi dolmuş bucket'ları periyodik temizle — uzun süre çalışan
	// sunucuda map'in sınırsız büyümesini önler.
	go l.cleanupLoop()

	return l
}

// Allow, verilen key için isteğe izin verilip verilmediğini döner.
// false dönerse caller 429 dönmelidir. Her çağrı sayacı artırır.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		l.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	// Ceza modunda tüm istekler reddedilir
	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		// Cooldown bitti — yeni pencere
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	if now.Sub(b.windowStart) > l.window {
		// Yeni pencere
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count <= l.max {
		return true
	}

	if l.cooldown > 0 {
		b.cooldownUntil = now.Add(l.cooldown)
	}
	return false
}

// Reset, başarılı login sonrası sayacı sıfırlar. Temizlenmezse meşru
// kullanıcı sonraki denemelerde bloke olabilir.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// RetryAfterSeconds, kalan bekleme süresini saniye cinsinden döner.
// HTTP Retry-After header değeri olarak kullanılır.
func (l *Limiter) RetryAfterSeconds(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		return 0
	}

	var remaining time.Duration
	if !b.cooldownUntil.IsZero() {
		remaining = time.Until(b.cooldownUntil)
	} else {
		remaining = l.window - time.Since(b.windowStart)
	}
	if remaining <= 0 {
		return 0
	}
	// +1 yuvarlama — client'ın tam süreyi beklemesi için
	return int(remaining.Seconds()) + 1
}

// Close, temizleme goroutine'ini durdurur.
func (l *Limiter) Close() {
	close(l.stop)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		windowExpired := now.Sub(b.windowStart) > l.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)
		if windowExpired && cooldownExpired {
			delete(l.buckets, key)
		}
	}
}

// ExtractIP, HTTP request'ten client IP adresini çıkarır.
//
// Öncelik: X-Forwarded-For (ilk IP) → X-Real-IP → RemoteAddr.
// Production'da uygulama reverse proxy arkasındadır; RemoteAddr o
// durumda her zaman proxy'nin adresidir.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage, kalan süreyi okunabilir formata çevirir.
// Örn: 120 → "2 minute(s)", 45 → "45 second(s)".
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
