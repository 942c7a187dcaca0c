package util

import (
	"sync/atomic"
	"time"
)

// 临时 ID 为负数，与服务端的正数 ID 空间天然隔离；
// 以启动时刻的毫秒时间戳为种子，单调自增避免同毫秒内连发冲突。
var tempSeq atomic.Int64

func init() {
	tempSeq.Store(time.Now().UnixMilli())
}

// NextTempID 生成下一个本地临时消息 ID
func NextTempID() int64 {
	return -tempSeq.Add(1)
}
