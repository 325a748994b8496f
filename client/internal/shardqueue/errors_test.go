package shardqueue

import (
	"errors"
	"strings"
	"testing"
)

func TestErrors_Matching(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		target  error
		matches bool
	}{
		{"full matches sentinel", &QueueFullError{Shard: 1, Length: 4, Capacity: 4}, ErrQueueFull, true},
		{"full is not closed", &QueueFullError{}, ErrExecutorClosed, false},
		{"panic is not full", &PanicError{Key: "evt-1", Value: "x"}, ErrQueueFull, false},
	}
	for _, tc := range cases {
		if got := errors.Is(tc.err, tc.target); got != tc.matches {
			t.Fatalf("%s: errors.Is = %v, want %v", tc.name, got, tc.matches)
		}
	}
}

func TestErrors_Messages(t *testing.T) {
	full := (&QueueFullError{Shard: 2, Length: 8, Capacity: 8}).Error()
	if !strings.Contains(full, "shard queue 2 full") {
		t.Fatalf("unexpected queue full message %q", full)
	}
	p := (&PanicError{Key: "draft", Value: "boom"}).Error()
	if !strings.Contains(p, `"draft"`) || !strings.Contains(p, "boom") {
		t.Fatalf("unexpected panic message %q", p)
	}
}
