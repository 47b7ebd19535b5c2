// Package ratelimit 滑动窗口限流器：按客户端 ID 维护时间戳桶
// 桶之间相互独立加锁，竞争上限是活跃客户端数
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter 单个动作类别的滑动窗口限流器
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	buckets map[string]*bucket

	idleTTL      time.Duration
	cleanupEvery time.Duration
}

// bucket 单客户端的请求时间戳，按时间有序追加
type bucket struct {
	mu       sync.Mutex
	stamps   []time.Time
	lastSeen time.Time
}

// Option 限流器可选配置
type Option func(*Limiter)

// WithClock 注入时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithIdleTTL 空闲桶的回收阈值
func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) { l.idleTTL = d }
}

// WithCleanupEvery 后台清理周期
func WithCleanupEvery(d time.Duration) Option {
	return func(l *Limiter) { l.cleanupEvery = d }
}

// New 创建限流器，窗口内最多允许 limit 次请求
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		limit:        limit,
		window:       window,
		now:          time.Now,
		buckets:      make(map[string]*bucket),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit 窗口内的配额
func (l *Limiter) Limit() int { return l.limit }

// Window 滑动窗口长度
func (l *Limiter) Window() time.Duration { return l.window }

func (l *Limiter) bucket(clientID string) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[clientID]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[clientID]; ok {
		return b
	}
	b = &bucket{}
	l.buckets[clientID] = b
	return b
}

// Allowed 检查并登记一次请求
// 先惰性清理窗口外的时间戳，未超限则追加当前时间戳并放行
func (l *Limiter) Allowed(clientID string) bool {
	now := l.now()
	b := l.bucket(clientID)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeen = now
	b.prune(now, l.window)

	if len(b.stamps) < l.limit {
		b.stamps = append(b.stamps, now)
		return true
	}
	return false
}

// ResetSeconds 距离重新获得配额的秒数（有配额时返回 0）
func (l *Limiter) ResetSeconds(clientID string) int {
	now := l.now()
	b := l.bucket(clientID)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.prune(now, l.window)
	if len(b.stamps) < l.limit {
		return 0
	}

	// 最早的时间戳滑出窗口后即有空位，不足一秒向上取整
	reset := b.stamps[0].Add(l.window).Sub(now)
	if reset <= 0 {
		return 0
	}
	secs := int(reset / time.Second)
	if reset%time.Second != 0 {
		secs++
	}
	return secs
}

// prune 丢弃滑出窗口的时间戳（调用方持有桶锁）
func (b *bucket) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(b.stamps) && !b.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.stamps = append(b.stamps[:0], b.stamps[i:]...)
	}
}

// Cleanup 回收长时间不活跃的客户端桶
func (l *Limiter) Cleanup() {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, b := range l.buckets {
		b.mu.Lock()
		idle := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(l.buckets, id)
		}
	}
}

// StartJanitor 启动后台清理协程，随 context 取消退出
func (l *Limiter) StartJanitor(ctx context.Context) {
	if l.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(l.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup()
			}
		}
	}()
}
