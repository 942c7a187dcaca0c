package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Estuary/internal/api/dto"
	"Estuary/internal/pkg/consts"
	"Estuary/internal/store"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pageBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// serverPage 按降序生成一页历史，total 为全量条数
func serverPage(total, offset, limit int, hasTotal bool) *dto.NormalizedPage {
	page := &dto.NormalizedPage{Total: total, HasTotal: hasTotal}
	for i := offset; i < total && i < offset+limit; i++ {
		id := int64(total - i)
		page.Messages = append(page.Messages, &dto.MessageDTO{
			ID:             id,
			ConversationID: 7,
			SenderID:       200,
			MsgType:        consts.KindText,
			Content:        "history",
			CreatedAt:      pageBase.Add(time.Duration(id) * time.Second),
		})
	}
	return page
}

func newTestPaginator(api *fakeAPI) (*Paginator, store.MessageStore, *atomic.Bool) {
	st := store.NewMessageStore()
	var torn atomic.Bool
	return NewPaginator(api, st, 7, 30, &torn), st, &torn
}

func TestLoadInitialReplacesAll(t *testing.T) {
	api := newFakeAPI()
	api.fetchFn = func(_ uint64, offset, limit int) (*dto.NormalizedPage, error) {
		return serverPage(10, offset, limit, true), nil
	}
	pager, st, _ := newTestPaginator(api)

	require.NoError(t, pager.LoadInitial(context.Background()))

	assert.Equal(t, 10, st.ConfirmedCount())
	assert.False(t, pager.HasMore())
	assert.Equal(t, 1, api.fetchCount())
}

func TestLoadMoreWalksToEnd(t *testing.T) {
	api := newFakeAPI()
	api.fetchFn = func(_ uint64, offset, limit int) (*dto.NormalizedPage, error) {
		return serverPage(65, offset, limit, true), nil
	}
	pager, st, _ := newTestPaginator(api)
	ctx := context.Background()

	require.NoError(t, pager.LoadInitial(ctx))
	assert.True(t, pager.HasMore())

	require.NoError(t, pager.LoadMore(ctx))
	assert.True(t, pager.HasMore())

	require.NoError(t, pager.LoadMore(ctx))
	assert.False(t, pager.HasMore())
	assert.Equal(t, 65, st.ConfirmedCount())
	assert.Equal(t, 3, api.fetchCount())

	// 已到底：后续调用不再发请求
	require.NoError(t, pager.LoadMore(ctx))
	assert.Equal(t, 3, api.fetchCount())
}

func TestLoadMoreInFlightGuard(t *testing.T) {
	api := newFakeAPI()
	started := make(chan struct{})
	release := make(chan struct{})
	api.fetchFn = func(_ uint64, offset, limit int) (*dto.NormalizedPage, error) {
		if offset == 30 {
			close(started)
			<-release
		}
		return serverPage(100, offset, limit, true), nil
	}
	pager, _, _ := newTestPaginator(api)
	ctx := context.Background()
	require.NoError(t, pager.LoadInitial(ctx))

	done := make(chan error, 1)
	go func() { done <- pager.LoadMore(ctx) }()
	<-started

	// 在途期间的重复触发是空操作
	assert.True(t, pager.IsLoading())
	require.NoError(t, pager.LoadMore(ctx))
	assert.Equal(t, 2, api.fetchCount())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 2, api.fetchCount())
}

func TestEmptyPageClearsHasMore(t *testing.T) {
	// 服务端声称还有 100 条却返回空页：判定拉完，防止无限重试
	api := newFakeAPI()
	api.fetchFn = func(_ uint64, offset, limit int) (*dto.NormalizedPage, error) {
		return &dto.NormalizedPage{Total: 100, HasTotal: true}, nil
	}
	pager, _, _ := newTestPaginator(api)

	require.NoError(t, pager.LoadInitial(context.Background()))
	assert.False(t, pager.HasMore())
}

func TestHasMoreWithoutTotal(t *testing.T) {
	api := newFakeAPI()
	returned := 30
	api.fetchFn = func(_ uint64, offset, limit int) (*dto.NormalizedPage, error) {
		return serverPage(returned+offset, offset, limit, false), nil
	}
	pager, _, _ := newTestPaginator(api)
	ctx := context.Background()

	// 满页：推定还有
	require.NoError(t, pager.LoadInitial(ctx))
	assert.True(t, pager.HasMore())

	// 短页：推定拉完
	returned = 12
	require.NoError(t, pager.LoadMore(ctx))
	assert.False(t, pager.HasMore())
}

func TestLoadMoreFailureKeepsCursor(t *testing.T) {
	api := newFakeAPI()
	fail := false
	api.fetchFn = func(_ uint64, offset, limit int) (*dto.NormalizedPage, error) {
		if fail {
			return nil, errors.New("gateway unavailable")
		}
		return serverPage(65, offset, limit, true), nil
	}
	pager, st, _ := newTestPaginator(api)
	ctx := context.Background()
	require.NoError(t, pager.LoadInitial(ctx))

	fail = true
	err := pager.LoadMore(ctx)
	require.Error(t, err)
	assert.True(t, pager.HasMore())
	assert.False(t, pager.IsLoading())
	assert.Equal(t, 30, st.ConfirmedCount())

	// 重试从原游标继续
	fail = false
	require.NoError(t, pager.LoadMore(ctx))
	assert.Equal(t, 60, st.ConfirmedCount())
}

func TestRefreshResetsCursor(t *testing.T) {
	api := newFakeAPI()
	api.fetchFn = func(_ uint64, offset, limit int) (*dto.NormalizedPage, error) {
		return serverPage(65, offset, limit, true), nil
	}
	pager, st, _ := newTestPaginator(api)
	ctx := context.Background()
	require.NoError(t, pager.LoadInitial(ctx))
	require.NoError(t, pager.LoadMore(ctx))
	require.Equal(t, 60, st.ConfirmedCount())

	require.NoError(t, pager.Refresh(ctx))
	assert.Equal(t, 30, st.ConfirmedCount())
	assert.True(t, pager.HasMore())
}

func TestRefreshDuringLoadMoreIsNoop(t *testing.T) {
	// 刷新在翻页在途时不得重置游标，否则在途完成后的游标推算会错位
	api := newFakeAPI()
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var offsets []int
	api.fetchFn = func(_ uint64, offset, limit int) (*dto.NormalizedPage, error) {
		mu.Lock()
		offsets = append(offsets, offset)
		mu.Unlock()
		if offset == 30 {
			close(started)
			<-release
		}
		return serverPage(100, offset, limit, true), nil
	}
	pager, _, _ := newTestPaginator(api)
	ctx := context.Background()
	require.NoError(t, pager.LoadInitial(ctx))

	done := make(chan error, 1)
	go func() { done <- pager.LoadMore(ctx) }()
	<-started

	require.NoError(t, pager.Refresh(ctx))
	assert.Equal(t, 2, api.fetchCount())

	close(release)
	require.NoError(t, <-done)

	// 在途翻页完成后游标连续，下一页从 60 开始
	require.NoError(t, pager.LoadMore(ctx))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 30, 60}, offsets)
}

func TestTornDownDiscardsLateResponse(t *testing.T) {
	api := newFakeAPI()
	pager, st, torn := newTestPaginator(api)
	api.fetchFn = func(_ uint64, offset, limit int) (*dto.NormalizedPage, error) {
		// 会话在响应返回前被关闭
		torn.Store(true)
		return serverPage(10, offset, limit, true), nil
	}

	err := pager.LoadInitial(context.Background())
	assert.ErrorIs(t, err, ErrSessionTornDown)
	assert.Equal(t, 0, st.ConfirmedCount())
}
