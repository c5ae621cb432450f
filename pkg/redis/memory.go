package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// sweepEvery 每写入多少次清理一次过期键
const sweepEvery = 1024

type memoryEntry struct {
	value    string
	expireAt time.Time // 零值表示永不过期
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// memoryClient 进程内实现，用于单机开发和测试
// 语义与 Redis 保持一致：键不存在返回 Nil，过期键不可见
type memoryClient struct {
	mu     sync.Mutex
	data   map[string]memoryEntry
	writes int
	now    func() time.Time
	closed bool
}

// NewMemoryClient 创建进程内 Client
func NewMemoryClient() Client {
	return newMemoryClient(time.Now)
}

func newMemoryClient(now func() time.Time) *memoryClient {
	return &memoryClient{
		data: make(map[string]memoryEntry),
		now:  now,
	}
}

// lookup 调用方需持有锁
func (m *memoryClient) lookup(key string) (memoryEntry, bool) {
	e, ok := m.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if e.expired(m.now()) {
		delete(m.data, key)
		return memoryEntry{}, false
	}
	return e, true
}

// store 调用方需持有锁
func (m *memoryClient) store(key string, e memoryEntry) {
	m.data[key] = e
	m.writes++
	if m.writes%sweepEvery == 0 {
		now := m.now()
		for k, v := range m.data {
			if v.expired(now) {
				delete(m.data, k)
			}
		}
	}
}

func (m *memoryClient) expireAt(expiration time.Duration) time.Time {
	if expiration <= 0 {
		return time.Time{}
	}
	return m.now().Add(expiration)
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (m *memoryClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store(key, memoryEntry{value: toString(value), expireAt: m.expireAt(expiration)})
	return nil
}

func (m *memoryClient) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return "", Nil
	}
	return e.value, nil
}

func (m *memoryClient) GetUint64(ctx context.Context, key string) (uint64, error) {
	s, err := m.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(s, 10, 64)
}

func (m *memoryClient) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryClient) Exists(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, k := range keys {
		if _, ok := m.lookup(k); ok {
			n++
		}
	}
	return n, nil
}

func (m *memoryClient) Expire(_ context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return nil
	}
	if expiration <= 0 {
		delete(m.data, key)
		return nil
	}
	e.expireAt = m.now().Add(expiration)
	m.data[key] = e
	return nil
}

// TTL 与 Redis 一致：不存在返回 -2，无过期时间返回 -1
func (m *memoryClient) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return -2, nil
	}
	if e.expireAt.IsZero() {
		return -1, nil
	}
	return e.expireAt.Sub(m.now()), nil
}

func (m *memoryClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrBy(ctx, key, 1)
}

func (m *memoryClient) IncrBy(_ context.Context, key string, value int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	var current int64
	if ok {
		n, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value is not an integer or out of range")
		}
		current = n
	}
	current += value
	e.value = strconv.FormatInt(current, 10)
	m.store(key, e)
	return current, nil
}

func (m *memoryClient) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	return m.Set(ctx, key, data, expiration)
}

func (m *memoryClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("JSON反序列化失败: %w", err)
	}
	return nil
}

func (m *memoryClient) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("memory client closed")
	}
	return nil
}

func (m *memoryClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
