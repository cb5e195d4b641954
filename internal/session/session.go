// Package session tracks conversations that wait for one more message from
// a user. A conversation is either idle (absent) or awaiting input until its
// deadline. Time is always passed in, so expiry is driven from outside.
package session

import (
	"container/list"
	"sort"
	"sync"
	"time"
)

// Key identifies a conversation: one user in one channel.
type Key struct {
	ChannelID string
	UserID    string
}

func (k Key) String() string {
	return k.ChannelID + "/" + k.UserID
}

// Outcome of taking a conversation's pending state.
type Outcome int

const (
	// Idle means nothing was awaited.
	Idle Outcome = iota
	// Answered means the reply arrived before the deadline.
	Answered
	// TimedOut means the deadline passed before the reply was taken.
	TimedOut
)

// Expired is a conversation removed by Expire.
type Expired[T any] struct {
	Key      Key
	State    T
	Deadline time.Time
}

// Registry holds awaiting conversations, at most maxSize of them. Beyond
// that the least recently started one is dropped.
type Registry[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	items   map[Key]*list.Element
	order   *list.List
}

type pending[T any] struct {
	key      Key
	state    T
	deadline time.Time
}

func NewRegistry[T any](ttl time.Duration, maxSize int) *Registry[T] {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &Registry[T]{
		ttl:     ttl,
		maxSize: maxSize,
		items:   make(map[Key]*list.Element),
		order:   list.New(),
	}
}

// Timeout is how long a conversation waits for its reply.
func (r *Registry[T]) Timeout() time.Duration {
	return r.ttl
}

// Begin moves key to awaiting input and returns the deadline. An earlier
// pending state for key is replaced.
func (r *Registry[T]) Begin(key Key, state T, now time.Time) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &pending[T]{key: key, state: state, deadline: now.Add(r.ttl)}
	if elem, ok := r.items[key]; ok {
		elem.Value = p
		r.order.MoveToFront(elem)
		return p.deadline
	}

	r.items[key] = r.order.PushFront(p)
	if r.order.Len() > r.maxSize {
		if oldest := r.order.Back(); oldest != nil {
			r.remove(oldest)
		}
	}
	return p.deadline
}

// Take returns key to idle and hands back what was awaited.
func (r *Registry[T]) Take(key Key, now time.Time) (T, Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	elem, ok := r.items[key]
	if !ok {
		return zero, Idle
	}
	p := elem.Value.(*pending[T])
	r.remove(elem)
	if now.After(p.deadline) {
		return p.state, TimedOut
	}
	return p.state, Answered
}

// Pending reports whether key is awaiting input.
func (r *Registry[T]) Pending(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[key]
	return ok
}

// Cancel returns key to idle. It reports whether anything was pending.
func (r *Registry[T]) Cancel(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	elem, ok := r.items[key]
	if ok {
		r.remove(elem)
	}
	return ok
}

// Expire removes every conversation whose deadline is before now, oldest
// deadline first.
func (r *Registry[T]) Expire(now time.Time) []Expired[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Expired[T]
	for elem := r.order.Front(); elem != nil; {
		next := elem.Next()
		p := elem.Value.(*pending[T])
		if now.After(p.deadline) {
			out = append(out, Expired[T]{Key: p.key, State: p.state, Deadline: p.deadline})
			r.remove(elem)
		}
		elem = next
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out
}

// Len returns the number of awaiting conversations.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Registry[T]) remove(elem *list.Element) {
	p := elem.Value.(*pending[T])
	delete(r.items, p.key)
	r.order.Remove(elem)
}
