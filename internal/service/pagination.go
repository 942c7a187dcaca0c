package service

import (
	"context"
	"sync"
	"sync/atomic"

	"Estuary/internal/pkg/rest"
	"Estuary/internal/store"

	log "log/slog"

	"github.com/pkg/errors"
)

// Paginator 单个会话的向前翻页游标。
// 状态机 Idle → Loading → Idle；Loading 期间的 LoadMore 是空操作，
// 失败时游标保持不变。
type Paginator struct {
	api      rest.ChatAPI
	store    store.MessageStore
	convID   uint64
	pageSize int
	tornDown *atomic.Bool // 会话销毁标记，迟到的响应直接丢弃

	mu      sync.Mutex
	cursor  int
	hasMore bool
	loading bool
}

func NewPaginator(api rest.ChatAPI, st store.MessageStore, convID uint64, pageSize int, tornDown *atomic.Bool) *Paginator {
	return &Paginator{
		api:      api,
		store:    st,
		convID:   convID,
		pageSize: pageSize,
		tornDown: tornDown,
		hasMore:  true,
	}
}

// LoadInitial 拉取第 0 页并整体替换集合
func (s *Paginator) LoadInitial(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	return s.fetchInitial(ctx)
}

// fetchInitial 必须已持有 loading 槽位
func (s *Paginator) fetchInitial(ctx context.Context) error {
	page, err := s.api.FetchMessages(ctx, s.convID, 0, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		log.Warn("首屏历史拉取失败", "convID", s.convID, "err", err)
		return errors.Wrap(err, ErrHistoryFailed.Error())
	}
	if s.tornDown.Load() {
		return ErrSessionTornDown
	}

	s.store.ReplaceAll(toMessages(page.Messages))
	s.cursor = len(page.Messages)
	s.hasMore = s.computeHasMore(len(page.Messages), page.Total, page.HasTotal)
	return nil
}

// LoadMore 向前翻一页。hasMore 为假或已有请求在途时为空操作。
func (s *Paginator) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	offset := s.cursor
	s.mu.Unlock()

	page, err := s.api.FetchMessages(ctx, s.convID, offset, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		log.Warn("历史翻页失败", "convID", s.convID, "offset", offset, "err", err)
		return errors.Wrap(err, ErrHistoryFailed.Error())
	}
	if s.tornDown.Load() {
		return ErrSessionTornDown
	}

	s.store.MergeHistoryPage(toMessages(page.Messages))
	s.cursor += len(page.Messages)
	s.hasMore = s.computeHasMore(len(page.Messages), page.Total, page.HasTotal)
	return nil
}

// Refresh 重置游标后重新走首屏加载，用于下拉刷新与周期补偿。
// 先抢 loading 槽位再动游标：有请求在途时整个刷新是空操作，
// 不会把在途翻页的游标推算搅乱。
func (s *Paginator) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.cursor = 0
	s.hasMore = true
	s.mu.Unlock()

	return s.fetchInitial(ctx)
}

func (s *Paginator) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

func (s *Paginator) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// computeHasMore 必须在持锁状态下调用。
// 空页即使声称还有剩余也判定为无更多，避免对不一致后端的无限重试；
// 无总数信息时，满页视作还有，短页视作拉完。
func (s *Paginator) computeHasMore(returned, total int, hasTotal bool) bool {
	if returned == 0 {
		return false
	}
	if hasTotal {
		return s.cursor < total
	}
	return returned == s.pageSize
}
