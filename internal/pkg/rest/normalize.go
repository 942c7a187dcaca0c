package rest

import (
	"bytes"

	"Estuary/internal/api/dto"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// 历史接口在不同版本的网关上用过不同的包装键，这里统一拆包
var pageListKeys = []string{"messages", "list", "items"}
var pageTotalKeys = []string{"total", "count"}

// NormalizePage 把任意形状的历史分页响应归一化为 NormalizedPage。
// 核心层不接触原始响应形状。
func NormalizePage(raw json.RawMessage) (*dto.NormalizedPage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &dto.NormalizedPage{}, nil
	}

	// 裸数组：没有总数信息
	if trimmed[0] == '[' {
		var msgs []*dto.MessageDTO
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return nil, errors.Wrap(err, "normalize page array")
		}
		return &dto.NormalizedPage{Messages: msgs}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, errors.Wrap(err, "normalize page object")
	}

	page := &dto.NormalizedPage{}
	for _, key := range pageListKeys {
		rawList, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(rawList, &page.Messages); err != nil {
			return nil, errors.Wrapf(err, "normalize page key %q", key)
		}
		break
	}

	for _, key := range pageTotalKeys {
		rawTotal, ok := fields[key]
		if !ok {
			continue
		}
		var total int
		if err := json.Unmarshal(rawTotal, &total); err != nil {
			continue
		}
		page.Total = total
		page.HasTotal = true
		break
	}

	return page, nil
}
