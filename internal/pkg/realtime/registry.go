package realtime

import (
	"sync"

	log "log/slog"
)

// Registry 引用计数的通道注册表：同名通道只存在一条物理订阅，
// 最后一次 Release 才真正退订。多个同时打开的会话共享物理连接时，
// 关掉其中一个不会影响其他会话的订阅。
type Registry struct {
	mu      sync.Mutex
	dialer  Dialer
	entries map[string]*regEntry
}

type regEntry struct {
	ch   Channel
	refs int
}

// Handle 一次 Acquire 的持有凭据
type Handle struct {
	reg      *Registry
	name     string
	Channel  Channel
	released bool
	mu       sync.Mutex
}

func NewRegistry(dialer Dialer) *Registry {
	return &Registry{
		dialer:  dialer,
		entries: make(map[string]*regEntry),
	}
}

// Acquire 获取通道：已存在则引用计数加一，否则建立新订阅
func (r *Registry) Acquire(name string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		ch, err := r.dialer.Open(name)
		if err != nil {
			return nil, err
		}
		e = &regEntry{ch: ch}
		r.entries[name] = e
	}
	e.refs++
	return &Handle{reg: r, name: name, Channel: e.ch}, nil
}

// Release 归还通道，重复调用是空操作
func (h *Handle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.mu.Unlock()

	h.reg.release(h.name)
}

func (r *Registry) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(r.entries, name)
	if err := e.ch.Close(); err != nil {
		log.Warn("关闭推送通道失败", "channel", name, "err", err)
	}
}
