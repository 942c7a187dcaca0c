package service

import (
	"Estuary/internal/api/dto"
	"Estuary/internal/model"

	"github.com/jinzhu/copier"
)

// toMessage DTO → 领域模型。字段名对齐后由 copier 搬运，
// 引用与可见性标记单独装配。
func toMessage(d *dto.MessageDTO) *model.Message {
	if d == nil {
		return nil
	}
	m := &model.Message{}
	_ = copier.Copy(m, d)
	m.Kind = d.MsgType
	m.IsHidden = d.IsHidden
	m.IsFromBlockedUser = d.FromBlocked
	if d.Parent != nil {
		m.Parent = &model.ParentMessageRef{
			MessageID:  d.Parent.MessageID,
			SenderID:   d.Parent.SenderID,
			SenderName: d.Parent.SenderName,
			Snippet:    d.Parent.Snippet,
		}
	}
	return m
}

func toMessages(list []*dto.MessageDTO) []*model.Message {
	res := make([]*model.Message, 0, len(list))
	for _, d := range list {
		if m := toMessage(d); m != nil {
			res = append(res, m)
		}
	}
	return res
}

func toParentRefDTO(ref *model.ParentMessageRef) *dto.ParentRefDTO {
	if ref == nil {
		return nil
	}
	return &dto.ParentRefDTO{
		MessageID:  ref.MessageID,
		SenderID:   ref.SenderID,
		SenderName: ref.SenderName,
		Snippet:    ref.Snippet,
	}
}
