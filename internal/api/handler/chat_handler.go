package handler

import (
	"Estuary/internal/api/dto"
	"Estuary/internal/pkg/response"
	"Estuary/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func convIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, service.ErrParamInvalid)
		return 0, false
	}
	return id, true
}

// Open 打开会话：首屏加载 + 订阅实时通道，返回初始读模型
func (s *ChatHandler) Open(c *gin.Context) {
	convID, ok := convIDParam(c)
	if !ok {
		return
	}

	sess, err := s.chatService.OpenConversation(c.Request.Context(), convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sess.View())
}

// Close 关闭会话并销毁其全部状态
func (s *ChatHandler) Close(c *gin.Context) {
	convID, ok := convIDParam(c)
	if !ok {
		return
	}

	if err := s.chatService.CloseConversation(convID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// View 获取当前读模型快照
func (s *ChatHandler) View(c *gin.Context) {
	convID, ok := convIDParam(c)
	if !ok {
		return
	}

	sess, err := s.chatService.Session(convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sess.View())
}

// LoadEarlier 向前加载更早的历史
func (s *ChatHandler) LoadEarlier(c *gin.Context) {
	convID, ok := convIDParam(c)
	if !ok {
		return
	}

	sess, err := s.chatService.Session(convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := sess.LoadEarlier(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sess.View())
}

// Refresh 重拉首屏并合并
func (s *ChatHandler) Refresh(c *gin.Context) {
	convID, ok := convIDParam(c)
	if !ok {
		return
	}

	sess, err := s.chatService.Session(convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := sess.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sess.View())
}

// Send 发送一条文本消息（携带当前回复目标）
func (s *ChatHandler) Send(c *gin.Context) {
	convID, ok := convIDParam(c)
	if !ok {
		return
	}

	var req dto.SendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	sess, err := s.chatService.Session(convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	msg, err := sess.Send(c.Request.Context(), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

// StartReply 设定回复目标
func (s *ChatHandler) StartReply(c *gin.Context) {
	convID, ok := convIDParam(c)
	if !ok {
		return
	}

	var req dto.ReplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	sess, err := s.chatService.Session(convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := sess.StartReply(req.MessageID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sess.View().ActiveReply)
}

// CancelReply 清除回复目标
func (s *ChatHandler) CancelReply(c *gin.Context) {
	convID, ok := convIDParam(c)
	if !ok {
		return
	}

	sess, err := s.chatService.Session(convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	sess.CancelReply()
	response.Success(c, nil)
}
