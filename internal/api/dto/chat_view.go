package dto

import "time"

// DisplayMessageDTO 渲染层消费的消息条目，已完成方位标注与隐藏替换
type DisplayMessageDTO struct {
	ID          int64         `json:"id"`
	SenderID    uint64        `json:"sender_id"`
	SenderName  string        `json:"sender_name"`
	Kind        int           `json:"kind"`
	Content     string        `json:"content"`
	Position    string        `json:"position"` // own / other
	IsLocalOnly bool          `json:"isLocalOnly"`
	Parent      *ParentRefDTO `json:"parent,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// ConversationViewDTO 单个会话的完整读模型
type ConversationViewDTO struct {
	ConversationID uint64               `json:"conversation_id"`
	Messages       []*DisplayMessageDTO `json:"messages"`
	IsClosed       bool                 `json:"isClosed"`
	IsArchived     bool                 `json:"isArchived"`
	HasMoreHistory bool                 `json:"hasMoreHistory"`
	IsLoadingMore  bool                 `json:"isLoadingMore"`
	ActiveReply    *ParentRefDTO        `json:"activeReply,omitempty"`
}

// SendReq 边车发送命令请求体
type SendReq struct {
	Content string `json:"content" binding:"required"`
}

// ReplyReq 边车发起回复请求体
type ReplyReq struct {
	MessageID int64 `json:"message_id" binding:"required"`
}
