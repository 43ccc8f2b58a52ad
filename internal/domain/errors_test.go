package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestUnavailableMatchesSentinel(t *testing.T) {
	err := Unavailable("exa", "search", context.DeadlineExceeded)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected cause to be kept, got %v", err)
	}
	var se *SourceError
	if !errors.As(err, &se) || se.Origin != "exa" {
		t.Errorf("expected SourceError for exa, got %#v", err)
	}

	bare := Unavailable("reddit", "fetch", nil)
	if !errors.Is(bare, ErrSourceUnavailable) {
		t.Errorf("nil cause should still match sentinel, got %v", bare)
	}
}

func TestRunErrorMessage(t *testing.T) {
	err := &RunError{RunID: "r1", Phase: "running", Failed: []string{"a", "b"}, Err: ErrTotalPipelineFailure}
	if !errors.Is(err, ErrTotalPipelineFailure) {
		t.Fatal("RunError should unwrap to its cause")
	}
	msg := err.Error()
	for _, want := range []string{"r1", "running", "a, b"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestAgeAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, known := AgeAt(nil, now); known {
		t.Error("nil timestamp must be unknown")
	}

	past := now.Add(-48 * time.Hour)
	days, known := AgeAt(&past, now)
	if !known || days != 2 {
		t.Errorf("expected 2 known days, got %v %v", days, known)
	}

	future := now.Add(24 * time.Hour)
	days, _ = AgeAt(&future, now)
	if days != 0 {
		t.Errorf("future timestamps clamp to 0, got %v", days)
	}
}

func TestRawCandidateLabelAndBody(t *testing.T) {
	c := RawCandidate{Title: "t", Text: "x", Meta: map[string]string{MetaPoster: "u/someone"}}
	if c.Label() != "u/someone" {
		t.Errorf("got %q", c.Label())
	}
	c.Meta[MetaAgency] = "Broward County"
	if c.Label() != "Broward County" {
		t.Errorf("agency should win, got %q", c.Label())
	}
	if c.Body() != "t\nx" {
		t.Errorf("got %q", c.Body())
	}
}
