package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid       = errors.New("参数错误")
	ErrEmptyMessage       = errors.New("消息内容为空")
	ErrConversationClosed = errors.New("会话已关闭")
	ErrSessionNotOpen     = errors.New("会话未打开")
	ErrSessionExist       = errors.New("会话已打开")
	ErrSessionTornDown    = errors.New("会话已销毁")
	ErrMessageNotFound    = errors.New("消息不存在")
	ErrSendFailed         = errors.New("消息发送失败")
	ErrHistoryFailed      = errors.New("历史消息拉取失败")
	UnauthorizedError     = errors.New("权限不足")
	UnExpectedError       = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:       BadRequest,
	ErrEmptyMessage:       BadRequest,
	ErrConversationClosed: BadRequest,
	ErrSessionNotOpen:     NotFound,
	ErrSessionExist:       BadRequest,
	ErrSessionTornDown:    NotFound,
	ErrMessageNotFound:    NotFound,
	ErrSendFailed:         InternalServerError,
	ErrHistoryFailed:      InternalServerError,
	UnauthorizedError:     Unauthorized,
	UnExpectedError:       InternalServerError,
}
