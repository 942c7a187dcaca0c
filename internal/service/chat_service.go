package service

import (
	"context"
	"sync"

	"Estuary/internal/api/config"
	"Estuary/internal/model"
	"Estuary/internal/pkg/realtime"
	"Estuary/internal/pkg/rest"

	log "log/slog"
)

// ChatService 会话同步服务门面：按会话 ID 管理打开中的 Session，
// 共享一份网关客户端与推送通道注册表。
type ChatService interface {
	OpenConversation(ctx context.Context, convID uint64) (*Session, error)
	Session(convID uint64) (*Session, error)
	CloseConversation(convID uint64) error
	RefreshAll(ctx context.Context)
	Close()
}

type chatServiceImpl struct {
	api      rest.ChatAPI
	registry *realtime.Registry
	cfg      config.ChatConfig

	mu       sync.Mutex
	profile  *model.Profile
	sessions map[uint64]*Session
}

func NewChatService(api rest.ChatAPI, registry *realtime.Registry, cfg config.ChatConfig) ChatService {
	return &chatServiceImpl{
		api:      api,
		registry: registry,
		cfg:      cfg,
		sessions: make(map[uint64]*Session),
	}
}

// OpenConversation 打开（或返回已打开的）会话。重复打开是空操作。
func (s *chatServiceImpl) OpenConversation(ctx context.Context, convID uint64) (*Session, error) {
	if convID == 0 {
		return nil, ErrParamInvalid
	}

	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if sess, ok := s.sessions[convID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	sess := NewSession(s.api, s.registry, convID, profile, s.cfg)
	s.sessions[convID] = sess
	s.mu.Unlock()

	if err := sess.Open(ctx); err != nil {
		s.mu.Lock()
		delete(s.sessions, convID)
		s.mu.Unlock()
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// Session 查找已打开的会话
func (s *chatServiceImpl) Session(convID uint64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[convID]
	if !ok {
		return nil, ErrSessionNotOpen
	}
	return sess, nil
}

// CloseConversation 关闭会话并销毁其状态
func (s *chatServiceImpl) CloseConversation(convID uint64) error {
	s.mu.Lock()
	sess, ok := s.sessions[convID]
	delete(s.sessions, convID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotOpen
	}
	sess.Close()
	return nil
}

// RefreshAll 刷新全部打开中的会话，合并去重保证重复拉取无副作用
func (s *chatServiceImpl) RefreshAll(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.Refresh(ctx); err != nil {
			log.WarnContext(ctx, "会话补偿同步失败", "convID", sess.convID, "err", err)
		}
	}
}

// Close 关闭全部会话
func (s *chatServiceImpl) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uint64]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
	log.Info("ChatService shut down gracefully")
}

// currentProfile 懒加载当前用户画像，供乐观消息作者回填
func (s *chatServiceImpl) currentProfile(ctx context.Context) (*model.Profile, error) {
	s.mu.Lock()
	if s.profile != nil {
		p := s.profile
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	d, err := s.api.SelfProfile(ctx)
	if err != nil {
		return nil, err
	}
	profile := &model.Profile{UserID: d.UserID, Username: d.Username, Avatar: d.Avatar}

	s.mu.Lock()
	if s.profile == nil {
		s.profile = profile
	}
	profile = s.profile
	s.mu.Unlock()
	return profile, nil
}
