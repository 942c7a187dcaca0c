package consts

// 消息类型
const (
	KindText   = 1
	KindImage  = 2
	KindVideo  = 3
	KindSystem = 10

	// 会话状态流转消息（系统类）
	KindClosed   = 11
	KindArchived = 12
	KindReopened = 13
)

// IsStateKind 判断消息类型是否为会话状态流转类型
func IsStateKind(kind int) bool {
	return kind == KindClosed || kind == KindArchived || kind == KindReopened
}

// 消息气泡方位
const (
	PositionOwn   = "own"
	PositionOther = "other"
)
