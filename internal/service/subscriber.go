package service

import (
	"sync"

	"Estuary/internal/api/dto"
	"Estuary/internal/pkg/consts"
	"Estuary/internal/pkg/realtime"
	"Estuary/internal/store"

	log "log/slog"

	"github.com/goccy/go-json"
)

// Subscriber 把一个会话绑定到共享推送通道上。
// 每个 (会话, 设备会话) 只维持一条有效绑定；通道可能被多个会话复用，
// 所以载荷里会话 ID 不匹配的事件要过滤掉。
type Subscriber struct {
	registry *realtime.Registry
	store    store.MessageStore
	convID   uint64

	mu      sync.Mutex
	handle  *realtime.Handle
	binding *realtime.Binding
}

func NewSubscriber(registry *realtime.Registry, st store.MessageStore, convID uint64) *Subscriber {
	return &Subscriber{
		registry: registry,
		store:    st,
		convID:   convID,
	}
}

// Bind 建立绑定。已绑定时为空操作。
func (s *Subscriber) Bind() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return nil
	}

	handle, err := s.registry.Acquire(consts.ConversationChannel(s.convID))
	if err != nil {
		return err
	}
	s.handle = handle
	s.binding = handle.Channel.Bind(consts.EventMessageNew, s.onMessage)
	return nil
}

// Unbind 解除绑定并归还通道引用。未绑定时为空操作。
func (s *Subscriber) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return
	}
	s.handle.Channel.Unbind(s.binding)
	s.handle.Release()
	s.handle = nil
	s.binding = nil
}

// onMessage 推送消息入库。去重交给 MergeRealtime。
func (s *Subscriber) onMessage(payload []byte) {
	var d dto.MessageDTO
	if err := json.Unmarshal(payload, &d); err != nil {
		log.Warn("推送消息解析失败", "convID", s.convID, "err", err)
		return
	}
	if d.ConversationID != s.convID {
		return
	}
	s.store.MergeRealtime(toMessage(&d))
}
