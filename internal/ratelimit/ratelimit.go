// Package ratelimit caps how many commands one chat user may send per window.
package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// Limiter is a fixed-window counter per key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	hits    atomic.Int64

	perWindow int
	window    time.Duration
}

type clientInfo struct {
	windowStart time.Time
	requests    int
}

type Config struct {
	PerWindow int
	Window    time.Duration
}

func DefaultConfig() Config {
	return Config{
		PerWindow: 30,
		Window:    time.Minute,
	}
}

func NewLimiter(config Config) *Limiter {
	if config.PerWindow <= 0 {
		config.PerWindow = DefaultConfig().PerWindow
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig().Window
	}
	return &Limiter{
		clients:   make(map[string]*clientInfo),
		perWindow: config.PerWindow,
		window:    config.Window,
	}
}

// Allow counts one request for key and reports whether it is within the limit.
func (rl *Limiter) Allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, exists := rl.clients[key]
	if !exists || now.Sub(client.windowStart) >= rl.window {
		rl.clients[key] = &clientInfo{windowStart: now, requests: 1}
		return true
	}

	client.requests++
	if client.requests > rl.perWindow {
		rl.hits.Add(1)
		return false
	}
	return true
}

// Prune forgets keys whose window ended before now.
func (rl *Limiter) Prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, client := range rl.clients {
		if now.Sub(client.windowStart) >= rl.window {
			delete(rl.clients, key)
		}
	}
}

// ActiveClients returns the number of currently tracked keys
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Hits returns how many requests were refused so far.
func (rl *Limiter) Hits() int64 {
	return rl.hits.Load()
}
