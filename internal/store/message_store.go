package store

import (
	"sort"
	"sync"

	"Estuary/internal/model"
	"Estuary/internal/pkg/consts"
)

// MessageStore 单个会话消息集合的唯一可变事实源，
// 所有去重与合并判定都在这里完成。
type MessageStore interface {
	ReplaceAll(msgs []*model.Message)
	MergeHistoryPage(msgs []*model.Message)
	MergeRealtime(msg *model.Message) bool
	AddLocalOnly(msg *model.Message)
	ResolveLocalOnly(tempID int64, confirmed *model.Message)
	Snapshot() []*model.Message
	DeriveState() (closed bool, archived bool)
	ConfirmedCount() int
}

type entry struct {
	msg *model.Message
	seq uint64 // 到达序，用于同时间戳的稳定排序
}

type messageStoreImpl struct {
	mu      sync.Mutex
	entries []entry
	index   map[int64]int // 消息 ID（含负数临时 ID）→ entries 下标
	nextSeq uint64
}

func NewMessageStore() MessageStore {
	return &messageStoreImpl{
		index: make(map[int64]int),
	}
}

// ReplaceAll 首屏加载或整体刷新：集合即输入，同时清掉遗留的本地临时消息
func (s *messageStoreImpl) ReplaceAll(msgs []*model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	s.index = make(map[int64]int, len(msgs))
	for _, m := range msgs {
		if !m.Valid() || m.IsLocalOnly {
			continue
		}
		s.insertLocked(m)
	}
}

// MergeHistoryPage 向前翻页合并：已存在的确认 ID 过滤掉，绝不删除已有条目。
// 最终排序由 Snapshot 重建，与本页内部顺序无关。
func (s *messageStoreImpl) MergeHistoryPage(msgs []*model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range msgs {
		if !m.Valid() || m.IsLocalOnly {
			continue
		}
		if _, ok := s.index[m.ID]; ok {
			continue
		}
		s.insertLocked(m)
	}
}

// MergeRealtime 实时推送合并：重复投递（或乐观回显）为幂等空操作。
// 返回是否真正插入。
func (s *messageStoreImpl) MergeRealtime(msg *model.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !msg.Valid() || msg.IsLocalOnly {
		return false
	}
	if _, ok := s.index[msg.ID]; ok {
		return false
	}
	s.insertLocked(msg)
	return true
}

// AddLocalOnly 插入乐观本地消息，临时 ID 为负数，到达序保证其展示在最新位置
func (s *messageStoreImpl) AddLocalOnly(msg *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg == nil || msg.ID >= 0 {
		return
	}
	msg.IsLocalOnly = true
	if _, ok := s.index[msg.ID]; ok {
		return
	}
	s.insertLocked(msg)
}

// ResolveLocalOnly 临时消息出清：删除 tempID 对应条目；
// confirmed 非空时按与 MergeRealtime 相同的去重规则插入确认副本。
// 重复调用是空操作（tempID 已不存在）。
func (s *messageStoreImpl) ResolveLocalOnly(tempID int64, confirmed *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[tempID]; ok {
		s.removeLocked(i)
	}

	if confirmed == nil {
		return
	}
	if !confirmed.Valid() || confirmed.IsLocalOnly {
		return
	}
	if _, ok := s.index[confirmed.ID]; ok {
		return
	}
	s.insertLocked(confirmed)
}

// Snapshot 返回排好序的只读副本：createdAt 降序，相同时间按到达序降序
func (s *messageStoreImpl) Snapshot() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]entry, len(s.entries))
	copy(sorted, s.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.msg.CreatedAt.Equal(b.msg.CreatedAt) {
			return a.msg.CreatedAt.After(b.msg.CreatedAt)
		}
		return a.seq > b.seq
	})

	res := make([]*model.Message, 0, len(sorted))
	for _, e := range sorted {
		res = append(res, e.msg)
	}
	return res
}

// DeriveState 从最新一条状态流转消息推导关闭/归档状态。
// reopened 出现在更晚位置时覆盖之前的 closed/archived。
func (s *messageStoreImpl) DeriveState() (bool, bool) {
	for _, m := range s.Snapshot() {
		if !consts.IsStateKind(m.Kind) {
			continue
		}
		switch m.Kind {
		case consts.KindClosed:
			return true, false
		case consts.KindArchived:
			return false, true
		}
		// reopened
		return false, false
	}
	return false, false
}

// ConfirmedCount 当前已确认消息数，用于 hasMore 判定
func (s *messageStoreImpl) ConfirmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, e := range s.entries {
		if !e.msg.IsLocalOnly {
			count++
		}
	}
	return count
}

func (s *messageStoreImpl) insertLocked(m *model.Message) {
	s.nextSeq++
	s.index[m.ID] = len(s.entries)
	s.entries = append(s.entries, entry{msg: m, seq: s.nextSeq})
}

func (s *messageStoreImpl) removeLocked(i int) {
	removed := s.entries[i].msg
	last := len(s.entries) - 1
	s.entries[i] = s.entries[last]
	s.entries = s.entries[:last]
	delete(s.index, removed.ID)
	if i < last {
		s.index[s.entries[i].msg.ID] = i
	}
}
