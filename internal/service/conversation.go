package service

import (
	"context"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"Estuary/internal/api/config"
	"Estuary/internal/api/dto"
	"Estuary/internal/model"
	"Estuary/internal/pkg/consts"
	"Estuary/internal/pkg/realtime"
	"Estuary/internal/pkg/rest"
	"Estuary/internal/store"

	log "log/slog"
)

// Session 单个打开中的会话：组合消息集合、翻页、乐观发送与实时订阅，
// 对外暴露视图层消费的读模型与命令面。
// 会话打开时创建，关闭即销毁，不跨会话切换保留。
type Session struct {
	convID  uint64
	cfg     config.ChatConfig
	profile *model.Profile
	api     rest.ChatAPI

	store  store.MessageStore
	pager  *Paginator
	sender *Sender
	sub    *Subscriber

	tornDown atomic.Bool

	mu          sync.Mutex
	activeReply *model.ParentMessageRef
	viewedAcked bool // 本设备会话期内只上报一次浏览回执
}

func NewSession(api rest.ChatAPI, registry *realtime.Registry, convID uint64, profile *model.Profile, cfg config.ChatConfig) *Session {
	st := store.NewMessageStore()
	s := &Session{
		convID:  convID,
		cfg:     cfg,
		profile: profile,
		api:     api,
		store:   st,
	}
	s.pager = NewPaginator(api, st, convID, cfg.PageSize, &s.tornDown)
	s.sender = NewSender(api, st, convID, profile)
	s.sub = NewSubscriber(registry, st, convID)
	return s
}

// Open 首屏加载、绑定实时通道、上报一次浏览回执
func (s *Session) Open(ctx context.Context) error {
	if err := s.pager.LoadInitial(ctx); err != nil {
		return err
	}
	if err := s.sub.Bind(); err != nil {
		return err
	}
	s.markViewedOnce()
	return nil
}

// Close 解绑实时订阅并标记销毁；在途请求不取消，
// 迟到的响应由 tornDown 标记拦截。
func (s *Session) Close() {
	s.tornDown.Store(true)
	s.sub.Unbind()
}

// LoadEarlier 向前加载更早的历史
func (s *Session) LoadEarlier(ctx context.Context) error {
	if s.tornDown.Load() {
		return ErrSessionTornDown
	}
	return s.pager.LoadMore(ctx)
}

// Refresh 重新拉取首屏并合并，周期补偿同步走这里
func (s *Session) Refresh(ctx context.Context) error {
	if s.tornDown.Load() {
		return ErrSessionTornDown
	}
	return s.pager.Refresh(ctx)
}

// Send 发送文本。成功后清除回复目标；失败保留，便于用户直接重试。
func (s *Session) Send(ctx context.Context, text string) (*model.Message, error) {
	if s.tornDown.Load() {
		return nil, ErrSessionTornDown
	}

	s.mu.Lock()
	reply := s.activeReply
	s.mu.Unlock()

	msg, err := s.sender.Send(ctx, text, reply)
	if err != nil {
		return nil, err
	}

	// 只清掉本次发送携带的那个目标；在途期间用户新选的不受影响
	s.mu.Lock()
	if s.activeReply == reply {
		s.activeReply = nil
	}
	s.mu.Unlock()
	return msg, nil
}

// StartReply 以某条消息为回复目标。目标本身是回复时直接复用其引用，
// 引用链永远只有一层。
func (s *Session) StartReply(messageID int64) error {
	var target *model.Message
	for _, m := range s.store.Snapshot() {
		if m.ID == messageID {
			target = m
			break
		}
	}
	if target == nil {
		return ErrMessageNotFound
	}

	ref := target.Parent
	if ref == nil {
		ref = &model.ParentMessageRef{
			MessageID:  target.ID,
			SenderID:   target.SenderID,
			SenderName: target.SenderName,
			Snippet:    s.snippet(target.Content),
		}
	}

	s.mu.Lock()
	s.activeReply = ref
	s.mu.Unlock()
	return nil
}

// CancelReply 清除回复目标
func (s *Session) CancelReply() {
	s.mu.Lock()
	s.activeReply = nil
	s.mu.Unlock()
}

// View 组装当前读模型快照
func (s *Session) View() *dto.ConversationViewDTO {
	msgs := s.store.Snapshot()
	closed, archived := s.store.DeriveState()

	s.mu.Lock()
	reply := s.activeReply
	s.mu.Unlock()

	display := make([]*dto.DisplayMessageDTO, 0, len(msgs))
	for _, m := range msgs {
		display = append(display, s.toDisplay(m))
	}

	return &dto.ConversationViewDTO{
		ConversationID: s.convID,
		Messages:       display,
		IsClosed:       closed,
		IsArchived:     archived,
		HasMoreHistory: s.pager.HasMore(),
		IsLoadingMore:  s.pager.IsLoading(),
		ActiveReply:    toParentRefDTO(reply),
	}
}

// toDisplay 方位标注与隐藏内容替换
func (s *Session) toDisplay(m *model.Message) *dto.DisplayMessageDTO {
	position := consts.PositionOther
	if m.SenderID == s.profile.UserID {
		position = consts.PositionOwn
	}

	content := m.Content
	if m.IsHidden || m.IsFromBlockedUser {
		content = s.cfg.HiddenPlaceholder
	}

	return &dto.DisplayMessageDTO{
		ID:          m.ID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		Kind:        m.Kind,
		Content:     content,
		Position:    position,
		IsLocalOnly: m.IsLocalOnly,
		Parent:      toParentRefDTO(m.Parent),
		CreatedAt:   m.CreatedAt,
	}
}

// markViewedOnce 首次成功加载后，对最新的不超过上限条他人消息
// 做一次尽力而为的浏览回执；失败只记日志，不重试。
func (s *Session) markViewedOnce() {
	s.mu.Lock()
	if s.viewedAcked {
		s.mu.Unlock()
		return
	}
	s.viewedAcked = true
	s.mu.Unlock()

	var ids []int64
	for _, m := range s.store.Snapshot() {
		if m.ID <= 0 || m.SenderID == s.profile.UserID {
			continue
		}
		ids = append(ids, m.ID)
		if len(ids) >= s.cfg.ViewAckLimit {
			break
		}
	}
	if len(ids) == 0 {
		return
	}

	go func() {
		if err := s.api.MarkViewed(context.Background(), s.convID, ids); err != nil {
			log.Warn("浏览回执上报失败", "convID", s.convID, "err", err)
		}
	}()
}

func (s *Session) snippet(content string) string {
	limit := s.cfg.SnippetLimit
	if limit <= 0 || utf8.RuneCountInString(content) <= limit {
		return content
	}
	runes := []rune(content)
	return string(runes[:limit]) + "…"
}
