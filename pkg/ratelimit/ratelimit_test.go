package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	l := NewLoginLimiter(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("fourth attempt should be blocked")
	}

	// Başka bir key etkilenmez
	if !l.Allow("5.6.7.8") {
		t.Error("different key should be unaffected")
	}
}

func TestLoginLimiterResetClearsCounter(t *testing.T) {
	l := NewLoginLimiter(2, time.Minute)
	defer l.Close()

	l.Allow("ip")
	l.Allow("ip")
	if l.Allow("ip") {
		t.Fatal("third attempt should be blocked")
	}

	l.Reset("ip")
	if !l.Allow("ip") {
		t.Error("attempt after reset should be allowed")
	}
}

func TestLoginLimiterWindowExpires(t *testing.T) {
	l := NewLoginLimiter(1, 30*time.Millisecond)
	defer l.Close()

	if !l.Allow("ip") {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("ip") {
		t.Fatal("second attempt in window should be blocked")
	}

	time.Sleep(50 * time.Millisecond)
	if !l.Allow("ip") {
		t.Error("attempt after window should be allowed")
	}
}

func TestMessageLimiterCooldown(t *testing.T) {
	l := NewMessageLimiter(2, 100*time.Millisecond, 40*time.Millisecond)
	defer l.Close()

	l.Allow("u1")
	l.Allow("u1")
	if l.Allow("u1") {
		t.Fatal("limit breach should start the cooldown")
	}

	// Cooldown süresince her istek reddedilir
	if l.Allow("u1") {
		t.Error("requests during cooldown should be rejected")
	}
	if l.RetryAfterSeconds("u1") < 1 {
		t.Error("retry-after should round up to at least 1 second")
	}

	time.Sleep(60 * time.Millisecond)
	if !l.Allow("u1") {
		t.Error("request after cooldown should be allowed")
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "10.0.0.1:5000",
			want:       "10.0.0.1",
		},
		{
			name:       "x-forwarded-for wins",
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ExtractIP(r); got != tt.want {
				t.Errorf("ExtractIP = %q, want %q", got, tt.want)
			}
		})
	}
}
