package util

import (
	"context"
	"testing"
	"time"
)

func TestHostLimiter_PacesPerHost(t *testing.T) {
	hl := NewHostLimiter(40*time.Millisecond, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := hl.WaitURL(ctx, "https://a.example/x"); err != nil {
			t.Fatal(err)
		}
	}
	if el := time.Since(start); el < 70*time.Millisecond {
		t.Fatalf("three requests to one host took %v; want pacing", el)
	}

	// a different host has its own budget
	start = time.Now()
	if err := hl.WaitURL(ctx, "https://b.example/y"); err != nil {
		t.Fatal(err)
	}
	if el := time.Since(start); el > 30*time.Millisecond {
		t.Fatalf("first request to new host waited %v", el)
	}
}

func TestHostLimiter_Cancel(t *testing.T) {
	hl := NewHostLimiter(time.Hour, 1)
	ctx, cancel := context.WithCancel(context.Background())
	_ = hl.WaitURL(ctx, "https://a.example")
	cancel()
	if err := hl.WaitURL(ctx, "https://a.example"); err == nil {
		t.Fatal("want error after cancel")
	}
}

func TestHostLimiter_Nil(t *testing.T) {
	var hl *HostLimiter
	if err := hl.WaitURL(context.Background(), "https://x"); err != nil {
		t.Fatal(err)
	}
}
