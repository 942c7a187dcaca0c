package service

import (
	"context"
	"testing"
	"time"

	"Estuary/internal/api/dto"
	"Estuary/internal/model"
	"Estuary/internal/pkg/consts"
	"Estuary/internal/store"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(api *fakeAPI) (*Sender, store.MessageStore) {
	st := store.NewMessageStore()
	profile := &model.Profile{UserID: 100, Username: "alice"}
	return NewSender(api, st, 7, profile), st
}

func TestSendOptimisticRoundTrip(t *testing.T) {
	api := newFakeAPI()
	var observedTempID int64
	api.sendFn = func(req *dto.SendMessageReq) (*dto.MessageDTO, error) {
		return &dto.MessageDTO{
			ID:             42,
			ConversationID: 7,
			SenderID:       100,
			SenderName:     "alice",
			MsgType:        consts.KindText,
			Content:        req.Content,
			CreatedAt:      time.Now(),
		}, nil
	}
	sender, st := newTestSender(api)

	// 网络调用发生前临时消息已入库
	origSendFn := api.sendFn
	api.sendFn = func(req *dto.SendMessageReq) (*dto.MessageDTO, error) {
		snap := st.Snapshot()
		require.Len(t, snap, 1)
		require.True(t, snap[0].IsLocalOnly)
		require.Negative(t, snap[0].ID)
		observedTempID = snap[0].ID
		return origSendFn(req)
	}

	msg, err := sender.Send(context.Background(), "  hello  ", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), msg.ID)
	assert.Equal(t, "hello", msg.Content)

	snap := st.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(42), snap[0].ID)
	assert.False(t, snap[0].IsLocalOnly)
	assert.NotEqual(t, observedTempID, snap[0].ID)

	reqs := api.sentReqs()
	require.Len(t, reqs, 1)
	assert.Equal(t, "hello", reqs[0].Content)
	assert.Equal(t, uint64(7), reqs[0].ConversationID)
}

func TestSendFailureRollsBack(t *testing.T) {
	api := newFakeAPI()
	api.sendFn = func(req *dto.SendMessageReq) (*dto.MessageDTO, error) {
		return nil, errors.New("gateway unavailable")
	}
	sender, st := newTestSender(api)

	_, err := sender.Send(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Empty(t, st.Snapshot())
}

func TestSendEmptyTextRejected(t *testing.T) {
	api := newFakeAPI()
	sender, st := newTestSender(api)

	_, err := sender.Send(context.Background(), "   \n\t  ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, st.Snapshot())
	assert.Empty(t, api.sentReqs())
}

func TestSendCarriesReplyRef(t *testing.T) {
	api := newFakeAPI()
	api.sendFn = func(req *dto.SendMessageReq) (*dto.MessageDTO, error) {
		return &dto.MessageDTO{
			ID:             43,
			ConversationID: 7,
			SenderID:       100,
			MsgType:        consts.KindText,
			Content:        req.Content,
			ParentID:       req.ParentID,
			CreatedAt:      time.Now(),
		}, nil
	}
	sender, _ := newTestSender(api)

	ref := &model.ParentMessageRef{MessageID: 9, SenderID: 200, SenderName: "bob", Snippet: "earlier"}
	msg, err := sender.Send(context.Background(), "reply text", ref)
	require.NoError(t, err)
	require.NotNil(t, msg.ParentID)
	assert.Equal(t, int64(9), *msg.ParentID)

	reqs := api.sentReqs()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].ParentID)
	assert.Equal(t, int64(9), *reqs[0].ParentID)
}

func TestSendBackfillsAuthor(t *testing.T) {
	// 网关响应缺作者信息时用本地画像补齐
	api := newFakeAPI()
	api.sendFn = func(req *dto.SendMessageReq) (*dto.MessageDTO, error) {
		return &dto.MessageDTO{
			ID:             44,
			ConversationID: 7,
			MsgType:        consts.KindText,
			Content:        req.Content,
			CreatedAt:      time.Now(),
		}, nil
	}
	sender, _ := newTestSender(api)

	msg, err := sender.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), msg.SenderID)
	assert.Equal(t, "alice", msg.SenderName)
}

func TestConcurrentSendsIndependent(t *testing.T) {
	// 两笔发送交错：先发的失败回滚不影响后发的确认副本
	api := newFakeAPI()
	api.sendFn = func(req *dto.SendMessageReq) (*dto.MessageDTO, error) {
		if req.Content == "doomed" {
			return nil, errors.New("gateway unavailable")
		}
		return &dto.MessageDTO{
			ID:             50,
			ConversationID: 7,
			SenderID:       100,
			MsgType:        consts.KindText,
			Content:        req.Content,
			CreatedAt:      time.Now(),
		}, nil
	}
	sender, st := newTestSender(api)
	ctx := context.Background()

	_, err := sender.Send(ctx, "doomed", nil)
	require.Error(t, err)
	msg, err := sender.Send(ctx, "survives", nil)
	require.NoError(t, err)

	snap := st.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, msg.ID, snap[0].ID)
}
