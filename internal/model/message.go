package model

import "time"

// Message 会话内的一条消息。服务端确认后 ID 为正数且不可变；
// 本地乐观发送阶段 ID 为负数临时 ID，确认后被服务端副本替换，且只替换一次。
type Message struct {
	ID                int64             `json:"id"`
	ConversationID    uint64            `json:"conversation_id"`
	SenderID          uint64            `json:"sender_id"`
	SenderName        string            `json:"sender_name"`
	Kind              int               `json:"kind"`
	Content           string            `json:"content"`
	CreatedAt         time.Time         `json:"createdAt"`
	ParentID          *int64            `json:"parent_id,omitempty"`
	Parent            *ParentMessageRef `json:"parent,omitempty"`
	IsHidden          bool              `json:"isHidden"`
	IsFromBlockedUser bool              `json:"isFromBlockedUser"`
	IsLocalOnly       bool              `json:"isLocalOnly"`
}

// ParentMessageRef 回复引用的轻量快照，只保留被回复方与摘要
type ParentMessageRef struct {
	MessageID  int64  `json:"message_id"`
	SenderID   uint64 `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Snippet    string `json:"snippet"`
}

// Profile 当前登录用户画像，用于乐观消息的作者回填
type Profile struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Valid 判断一条已确认消息是否具备入库的最低要求。
// 分页返回中的坏数据只跳过，不阻断整页。
func (m *Message) Valid() bool {
	if m == nil {
		return false
	}
	if m.CreatedAt.IsZero() {
		return false
	}
	if m.IsLocalOnly {
		return m.ID < 0
	}
	return m.ID > 0
}
