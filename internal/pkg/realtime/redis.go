package realtime

import (
	"context"

	"Estuary/internal/api/dto"
	"Estuary/internal/pkg/consts"

	log "log/slog"

	"github.com/goccy/go-json"
	redisv9 "github.com/redis/go-redis/v9"
)

// Bus 直连 Redis 发布总线的通道实现。服务端按会话粒度向
// im:conversation:<id> 频道发布，部署在服务端同侧时可以跳过网关。
// 断线重连与退避由 go-redis 的 PubSub 自身负责。
type Bus struct {
	rdb *redisv9.Client
}

func NewBus(rdb *redisv9.Client) *Bus {
	return &Bus{rdb: rdb}
}

// Open 订阅一个 Redis 频道作为逻辑通道
func (b *Bus) Open(name string) (Channel, error) {
	pubsub := b.rdb.Subscribe(context.Background(), name)
	// 确认订阅生效，失败时立刻暴露
	if _, err := pubsub.Receive(context.Background()); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	ch := &busChannel{
		name:       name,
		pubsub:     pubsub,
		dispatcher: newDispatcher(),
	}
	go ch.loop()
	return ch, nil
}

type busChannel struct {
	name   string
	pubsub *redisv9.PubSub
	*dispatcher
}

func (c *busChannel) loop() {
	for msg := range c.pubsub.Channel() {
		data := []byte(msg.Payload)

		var frame dto.PushFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			// 服务端历史行为是整包发布消息体，不带帧封装
			c.dispatch(consts.EventMessageNew, data)
			continue
		}
		c.dispatch(frame.Event, frame.Payload)
	}
	log.Info("Redis 推送通道已退订", "channel", c.name)
}

func (c *busChannel) Close() error {
	return c.pubsub.Close()
}
