package session

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestRegistry_BeginTake(t *testing.T) {
	r := NewRegistry[string](time.Minute, 10)
	k := Key{ChannelID: "c1", UserID: "u1"}

	if _, out := r.Take(k, t0); out != Idle {
		t.Fatalf("empty registry: outcome %v", out)
	}

	deadline := r.Begin(k, "pick category", t0)
	if !deadline.Equal(t0.Add(time.Minute)) {
		t.Fatalf("deadline = %v", deadline)
	}
	if !r.Pending(k) || r.Len() != 1 {
		t.Fatal("expected pending conversation")
	}

	// a different user in the same channel does not answer it
	if _, out := r.Take(Key{ChannelID: "c1", UserID: "u2"}, t0); out != Idle {
		t.Fatalf("other user: outcome %v", out)
	}

	state, out := r.Take(k, t0.Add(30*time.Second))
	if out != Answered || state != "pick category" {
		t.Fatalf("take = %q %v", state, out)
	}
	if r.Pending(k) {
		t.Fatal("conversation should be idle after take")
	}
}

func TestRegistry_TakeAfterDeadline(t *testing.T) {
	r := NewRegistry[int](time.Minute, 10)
	k := Key{ChannelID: "c", UserID: "u"}
	r.Begin(k, 7, t0)

	if _, out := r.Take(k, t0.Add(time.Minute)); out != Answered {
		t.Fatalf("reply exactly at the deadline: outcome %v", out)
	}
	r.Begin(k, 7, t0)
	if _, out := r.Take(k, t0.Add(61*time.Second)); out != TimedOut {
		t.Fatalf("late reply: outcome %v", out)
	}
}

func TestRegistry_BeginReplaces(t *testing.T) {
	r := NewRegistry[string](time.Minute, 10)
	k := Key{ChannelID: "c", UserID: "u"}
	r.Begin(k, "first", t0)
	r.Begin(k, "second", t0.Add(10*time.Second))
	if r.Len() != 1 {
		t.Fatalf("len = %d", r.Len())
	}
	if got := r.Expire(t0.Add(65 * time.Second)); len(got) != 0 {
		t.Fatalf("replaced prompt kept the old deadline: %+v", got)
	}
	state, _ := r.Take(k, t0.Add(20*time.Second))
	if state != "second" {
		t.Fatalf("state = %q", state)
	}
}

func TestRegistry_Expire(t *testing.T) {
	r := NewRegistry[string](time.Minute, 10)
	a := Key{ChannelID: "c", UserID: "a"}
	b := Key{ChannelID: "c", UserID: "b"}
	c := Key{ChannelID: "c", UserID: "c"}
	r.Begin(b, "b", t0.Add(5*time.Second))
	r.Begin(a, "a", t0)
	r.Begin(c, "c", t0.Add(2*time.Minute))

	if got := r.Expire(t0.Add(time.Minute)); len(got) != 0 {
		t.Fatalf("nothing is overdue yet: %+v", got)
	}
	got := r.Expire(t0.Add(70 * time.Second))
	if len(got) != 2 || got[0].Key != a || got[1].Key != b {
		t.Fatalf("expired = %+v", got)
	}
	if r.Len() != 1 || !r.Pending(c) {
		t.Fatal("unexpired conversation was removed")
	}
}

func TestRegistry_CancelAndEviction(t *testing.T) {
	r := NewRegistry[int](time.Minute, 2)
	k1 := Key{ChannelID: "c", UserID: "1"}
	k2 := Key{ChannelID: "c", UserID: "2"}
	k3 := Key{ChannelID: "c", UserID: "3"}
	r.Begin(k1, 1, t0)
	r.Begin(k2, 2, t0)
	r.Begin(k3, 3, t0)

	if r.Pending(k1) {
		t.Fatal("oldest conversation should be evicted")
	}
	if !r.Cancel(k2) || r.Cancel(k2) {
		t.Fatal("cancel should succeed once")
	}
	if r.Len() != 1 {
		t.Fatalf("len = %d", r.Len())
	}
	if k3.String() != "c/3" {
		t.Fatalf("key string = %q", k3.String())
	}
}
