package http

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window limiter per client IP.
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	window       time.Duration
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	windowStart time.Time
	lastRequest time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute < 1 {
		perMinute = 60
	}
	rl := &rateLimiter{
		limit:       perMinute,
		window:      time.Minute,
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries(time.Now())
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes clients idle for more than 10 minutes.
func (rl *rateLimiter) cleanupStaleEntries(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-10 * time.Minute)
	removed := 0
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// allow records a request from clientIP and reports whether it is within
// the limit for the current window.
func (rl *rateLimiter) allow(clientIP string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.windowStart) >= rl.window {
		rl.clients[clientIP] = &clientInfo{windowStart: now, lastRequest: now, requests: 1}
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= rl.limit
}
