package utils

import (
	"sync"
	"time"
)

// RateLimiter ограничивает частоту запросов к публичным B2B-эндпоинтам
// скользящим окном на каждую вызывающую сторону
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// prune выбрасывает из окна ключа запросы старше его начала.
// Вызывается только под mu.
func (rl *RateLimiter) prune(key string, now time.Time) []time.Time {
	start := now.Add(-rl.window)
	kept := rl.windows[key][:0]
	for _, ts := range rl.windows[key] {
		if ts.After(start) {
			kept = append(kept, ts)
		}
	}
	rl.windows[key] = kept
	return kept
}

// Allow регистрирует запрос и сообщает, укладывается ли он в лимит
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if len(rl.prune(key, now)) >= rl.limit {
		return false
	}

	rl.windows[key] = append(rl.windows[key], now)
	return true
}

// Remaining возвращает остаток лимита для ключа
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	remaining := rl.limit - len(rl.prune(key, time.Now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RetryAfter возвращает, через сколько самый старый запрос окна выйдет
// за его пределы и лимит освободится. Ноль означает, что лимит
// не исчерпан и ждать не нужно.
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	kept := rl.prune(key, now)
	if len(kept) < rl.limit {
		return 0
	}
	return kept[0].Add(rl.window).Sub(now)
}

// Reset сбрасывает окно для ключа
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, key)
}
