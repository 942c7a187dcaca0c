package rest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"Estuary/internal/api/config"
	"Estuary/internal/api/dto"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ChatAPI 远端 IM 网关的消费接口。历史拉取对相同
// (conversationId, offset, limit) 幂等；浏览回执由调用方 fire-and-forget。
type ChatAPI interface {
	FetchMessages(ctx context.Context, convID uint64, offset, limit int) (*dto.NormalizedPage, error)
	SendMessage(ctx context.Context, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	MarkViewed(ctx context.Context, convID uint64, messageIDs []int64) error
	SelfProfile(ctx context.Context) (*dto.ProfileDTO, error)
}

// APIError 网关返回的业务错误（非 200 业务码）
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

type restClientImpl struct {
	http *resty.Client
}

func NewClient(cfg config.APIConfig) ChatAPI {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &restClientImpl{http: client}
}

// FetchMessages 拉取一页历史消息并归一化
func (s *restClientImpl) FetchMessages(ctx context.Context, convID uint64, offset, limit int) (*dto.NormalizedPage, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"conversationId": strconv.FormatUint(convID, 10),
			"offset":         strconv.Itoa(offset),
			"limit":          strconv.Itoa(limit),
		}).
		Get("/api/im/history")

	data, err := unwrap(resp, err)
	if err != nil {
		return nil, errors.Wrap(err, "fetch messages")
	}
	return NormalizePage(data)
}

// SendMessage 发送消息，返回服务端确认副本
func (s *restClientImpl) SendMessage(ctx context.Context, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/im/send")

	data, err := unwrap(resp, err)
	if err != nil {
		return nil, errors.Wrap(err, "send message")
	}

	var msg dto.MessageDTO
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Wrap(err, "decode sent message")
	}
	return &msg, nil
}

// MarkViewed 上报浏览回执
func (s *restClientImpl) MarkViewed(ctx context.Context, convID uint64, messageIDs []int64) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(&dto.MarkViewedReq{ConversationID: convID, MessageIDs: messageIDs}).
		Post("/api/im/read")

	if _, err = unwrap(resp, err); err != nil {
		return errors.Wrap(err, "mark viewed")
	}
	return nil
}

// SelfProfile 获取当前登录用户信息
func (s *restClientImpl) SelfProfile(ctx context.Context) (*dto.ProfileDTO, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		Get("/api/user/info")

	data, err := unwrap(resp, err)
	if err != nil {
		return nil, errors.Wrap(err, "self profile")
	}

	var profile dto.ProfileDTO
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}
	return &profile, nil
}

// envelope 服务端统一响应封装
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// unwrap 拆掉响应封装，非 200 业务码转为 APIError
func unwrap(resp *resty.Response, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &APIError{Code: resp.StatusCode(), Message: resp.Status()}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	if env.Code != 200 {
		return nil, &APIError{Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}
