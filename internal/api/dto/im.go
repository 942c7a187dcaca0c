package dto

import (
	"time"

	"github.com/goccy/go-json"
)

// MessageDTO 服务端消息明细
type MessageDTO struct {
	ID             int64         `json:"id"`
	ConversationID uint64        `json:"conversation_id"`
	SenderID       uint64        `json:"sender_id"`
	SenderName     string        `json:"sender_name"`
	MsgType        int           `json:"msg_type"` // 1-文本, 2-图片, 3-视频, 10+ 系统
	Content        string        `json:"content"`
	ParentID       *int64        `json:"parent_id,omitempty"`
	Parent         *ParentRefDTO `json:"parent,omitempty"`
	IsHidden       bool          `json:"is_hidden"`
	FromBlocked    bool          `json:"from_blocked"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// ParentRefDTO 回复引用
type ParentRefDTO struct {
	MessageID  int64  `json:"message_id"`
	SenderID   uint64 `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Snippet    string `json:"snippet"`
}

// NormalizedPage 归一化后的历史分页，核心层只认这个形状
type NormalizedPage struct {
	Messages []*MessageDTO `json:"messages"`
	Total    int           `json:"total"`
	HasTotal bool          `json:"-"` // 服务端未报告总数时为 false
}

// SendMessageReq 发送消息请求体（对远端网关）
type SendMessageReq struct {
	ConversationID uint64 `json:"conversation_id"`
	MsgType        int    `json:"msg_type"`
	Content        string `json:"content"`
	ParentID       *int64 `json:"parent_id,omitempty"`
}

// MarkViewedReq 浏览回执请求体
type MarkViewedReq struct {
	ConversationID uint64  `json:"conversation_id"`
	MessageIDs     []int64 `json:"message_ids"`
}

// ProfileDTO 当前用户信息
type ProfileDTO struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// PushFrame 实时通道上的推送帧。channel 用于多路复用场景的路由，
// event 为空时按历史格式整包视作新消息载荷。
type PushFrame struct {
	Channel string          `json:"channel,omitempty"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}
