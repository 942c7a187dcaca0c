package wire

import (
	"Estuary/internal/api"
	"Estuary/internal/api/config"
	"Estuary/internal/api/handler"
	"Estuary/internal/job"
	"Estuary/internal/pkg/cron"
	"Estuary/internal/pkg/realtime"
	"Estuary/internal/pkg/redis"
	"Estuary/internal/pkg/rest"
	"Estuary/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router      *gin.Engine
	ChatService service.ChatService
	Gateway     *realtime.Gateway
	CronMgr     *cron.Manager
}

func BuildApplication(cfg *config.Config) (*ApplicationContainer, error) {
	apiClient := rest.NewClient(cfg.API)

	var gateway *realtime.Gateway
	var dialer realtime.Dialer
	switch cfg.Realtime.Mode {
	case "redis":
		dialer = realtime.NewBus(redis.GetRdbClient())
	case "ws", "":
		gateway = realtime.NewGateway(cfg.Realtime.GatewayURL, cfg.API.Token)
		dialer = gateway
	default:
		return nil, errors.Errorf("unknown realtime mode %q", cfg.Realtime.Mode)
	}

	registry := realtime.NewRegistry(dialer)
	chatService := service.NewChatService(apiClient, registry, cfg.Chat)

	handlers := &api.HandlersGroup{
		ChatHandler: handler.NewChatHandler(chatService),
	}

	router := api.SetupRouter(handlers)

	resyncJob := job.NewResyncJob(chatService)
	cronMgr := cron.NewCronManager(resyncJob)

	return &ApplicationContainer{
		Router:      router,
		ChatService: chatService,
		Gateway:     gateway,
		CronMgr:     cronMgr,
	}, nil
}
