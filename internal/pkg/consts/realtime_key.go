package consts

import "strconv"

const (
	// IMConversationKey 会话推送通道前缀，与服务端发布侧保持一致
	IMConversationKey = "im:conversation:"

	EventMessageNew  = "message:new"
	EventReadReceipt = "message:read"
)

// ConversationChannel 拼接某个会话的推送通道名
func ConversationChannel(convID uint64) string {
	return IMConversationKey + strconv.FormatUint(convID, 10)
}
