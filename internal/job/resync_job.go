package job

import (
	"Estuary/internal/pkg/logger"
	"Estuary/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// ResyncJob 周期补偿同步：实时通道断连期间丢掉的消息靠重拉首屏找回，
// 合并去重保证重复执行无副作用。
type ResyncJob struct {
	chatService service.ChatService
}

func NewResyncJob(chatService service.ChatService) *ResyncJob {
	return &ResyncJob{
		chatService: chatService,
	}
}

func (s *ResyncJob) Run() {
	traceID := "job-resync-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	start := time.Now()
	log.InfoContext(ctx, "ResyncJob processing")

	s.chatService.RefreshAll(ctx)

	log.InfoContext(ctx, "ResyncJob finished", "elapsed", time.Since(start).String())
}
