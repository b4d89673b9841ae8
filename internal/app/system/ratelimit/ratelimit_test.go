package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := New(3, time.Hour)
	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("fourth attempt should be blocked")
	}
	if !l.Allow("other") {
		t.Error("keys must be independent")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Reset should restore the budget")
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l := New(1, time.Millisecond)
	l.Allow("a")
	time.Sleep(5 * time.Millisecond)
	if n := l.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.9:4444"
	if got := ClientIP(r); got != "10.0.0.9" {
		t.Errorf("ClientIP() = %q", got)
	}
	r.Header.Set("X-Real-IP", "10.0.0.2")
	if got := ClientIP(r); got != "10.0.0.2" {
		t.Errorf("ClientIP() = %q", got)
	}
	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.7" {
		t.Errorf("ClientIP() = %q", got)
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := &LoginLimiter{ip: New(100, time.Minute), email: New(2, time.Hour)}
	r := httptest.NewRequest("POST", "/auth/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "A@x.org"); !ok {
			t.Fatalf("attempt %d blocked", i+1)
		}
	}
	ok, reason := ll.Check(r, "a@x.org")
	if ok || reason == "" {
		t.Error("third attempt for the same folded email should be blocked")
	}
	ll.ResetEmail("a@X.org")
	if ok, _ := ll.Check(r, "a@x.org"); !ok {
		t.Error("ResetEmail should restore the budget")
	}
}
