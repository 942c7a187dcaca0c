package service

import (
	"context"
	"sync"

	"Estuary/internal/api/config"
	"Estuary/internal/api/dto"
	"Estuary/internal/pkg/realtime"
)

// fakeAPI 可编程的网关替身
type fakeAPI struct {
	mu sync.Mutex

	fetchFn func(convID uint64, offset, limit int) (*dto.NormalizedPage, error)
	sendFn  func(req *dto.SendMessageReq) (*dto.MessageDTO, error)

	fetchCalls  int
	sendCalls   []*dto.SendMessageReq
	viewedCalls [][]int64
	viewedDone  chan struct{}

	profile *dto.ProfileDTO
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		profile:    &dto.ProfileDTO{UserID: 100, Username: "alice"},
		viewedDone: make(chan struct{}, 16),
	}
}

func (f *fakeAPI) FetchMessages(_ context.Context, convID uint64, offset, limit int) (*dto.NormalizedPage, error) {
	f.mu.Lock()
	f.fetchCalls++
	fn := f.fetchFn
	f.mu.Unlock()

	if fn == nil {
		return &dto.NormalizedPage{}, nil
	}
	return fn(convID, offset, limit)
}

func (f *fakeAPI) SendMessage(_ context.Context, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	f.mu.Lock()
	f.sendCalls = append(f.sendCalls, req)
	fn := f.sendFn
	f.mu.Unlock()

	if fn == nil {
		return nil, ErrSendFailed
	}
	return fn(req)
}

func (f *fakeAPI) MarkViewed(_ context.Context, _ uint64, messageIDs []int64) error {
	f.mu.Lock()
	f.viewedCalls = append(f.viewedCalls, messageIDs)
	f.mu.Unlock()
	f.viewedDone <- struct{}{}
	return nil
}

func (f *fakeAPI) SelfProfile(_ context.Context) (*dto.ProfileDTO, error) {
	return f.profile, nil
}

func (f *fakeAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func (f *fakeAPI) sentReqs() []*dto.SendMessageReq {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*dto.SendMessageReq(nil), f.sendCalls...)
}

func (f *fakeAPI) viewed() [][]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]int64(nil), f.viewedCalls...)
}

// fakeChannel 进程内推送通道替身，emit 模拟服务端推帧
type fakeChannel struct {
	mu       sync.Mutex
	bindings []*realtime.Binding
	closed   bool
}

func (c *fakeChannel) Bind(event string, fn realtime.Handler) *realtime.Binding {
	b := &realtime.Binding{Event: event, Fn: fn}
	c.mu.Lock()
	c.bindings = append(c.bindings, b)
	c.mu.Unlock()
	return b
}

func (c *fakeChannel) Unbind(b *realtime.Binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cur := range c.bindings {
		if cur == b {
			c.bindings = append(c.bindings[:i], c.bindings[i+1:]...)
			return
		}
	}
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeChannel) emit(event string, payload []byte) {
	c.mu.Lock()
	list := make([]*realtime.Binding, 0, len(c.bindings))
	for _, b := range c.bindings {
		if b.Event == event {
			list = append(list, b)
		}
	}
	c.mu.Unlock()

	for _, b := range list {
		b.Fn(payload)
	}
}

func (c *fakeChannel) bindingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bindings)
}

// fakeDialer 记录打开过的通道名
type fakeDialer struct {
	mu       sync.Mutex
	channels map[string]*fakeChannel
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{channels: make(map[string]*fakeChannel)}
}

func (d *fakeDialer) Open(name string) (realtime.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch := &fakeChannel{}
	d.channels[name] = ch
	return ch, nil
}

func (d *fakeDialer) channel(name string) *fakeChannel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channels[name]
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		PageSize:          30,
		ViewAckLimit:      30,
		HiddenPlaceholder: "[内容已隐藏]",
		SnippetLimit:      50,
	}
}
