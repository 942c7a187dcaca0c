package service

import (
	"context"
	"strings"
	"time"

	"Estuary/internal/api/dto"
	"Estuary/internal/model"
	"Estuary/internal/pkg/consts"
	"Estuary/internal/pkg/rest"
	"Estuary/internal/pkg/util"
	"Estuary/internal/store"

	log "log/slog"
)

// Sender 乐观发送控制器：先落临时消息让界面即时反馈，
// 网关确认后用服务端副本替换，失败则回滚临时条目。
// 各笔发送的出清相互独立，互不阻塞。
type Sender struct {
	api     rest.ChatAPI
	store   store.MessageStore
	convID  uint64
	profile *model.Profile
}

func NewSender(api rest.ChatAPI, st store.MessageStore, convID uint64, profile *model.Profile) *Sender {
	return &Sender{
		api:     api,
		store:   st,
		convID:  convID,
		profile: profile,
	}
}

// Send 发送一条文本消息。reply 非空时携带回复目标。
func (s *Sender) Send(ctx context.Context, text string, reply *model.ParentMessageRef) (*model.Message, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	tempID := util.NextTempID()
	provisional := &model.Message{
		ID:             tempID,
		ConversationID: s.convID,
		SenderID:       s.profile.UserID,
		SenderName:     s.profile.Username,
		Kind:           consts.KindText,
		Content:        content,
		CreatedAt:      time.Now(),
		IsLocalOnly:    true,
	}

	var parentID *int64
	if reply != nil {
		id := reply.MessageID
		parentID = &id
		provisional.ParentID = &id
		provisional.Parent = reply
	}

	// 网络调用前同步落库，界面立即可见
	s.store.AddLocalOnly(provisional)

	confirmedDTO, err := s.api.SendMessage(ctx, &dto.SendMessageReq{
		ConversationID: s.convID,
		MsgType:        consts.KindText,
		Content:        content,
		ParentID:       parentID,
	})
	if err != nil {
		// 回滚：临时条目出清，已确认集合不受影响
		s.store.ResolveLocalOnly(tempID, nil)
		log.Warn("消息发送失败，已回滚临时消息", "convID", s.convID, "err", err)
		return nil, err
	}

	confirmed := toMessage(confirmedDTO)
	s.backfillAuthor(confirmed)
	s.store.ResolveLocalOnly(tempID, confirmed)
	return confirmed, nil
}

// backfillAuthor 网关只对身份/时间戳/内容权威；
// 响应缺作者信息时用本地已知画像补齐。
func (s *Sender) backfillAuthor(m *model.Message) {
	if m == nil {
		return
	}
	if m.SenderID == 0 {
		m.SenderID = s.profile.UserID
	}
	if m.SenderName == "" {
		m.SenderName = s.profile.Username
	}
}
