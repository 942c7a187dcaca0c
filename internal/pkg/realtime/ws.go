package realtime

import (
	"sync"
	"time"

	"Estuary/internal/api/dto"
	"Estuary/internal/pkg/consts"

	log "log/slog"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 10 * time.Second
	wsBackoffInitial = time.Second
	wsBackoffMax     = 30 * time.Second
)

// subscribeOp 网关侧的订阅指令帧
type subscribeOp struct {
	Op      string `json:"op"` // subscribe / unsubscribe
	Channel string `json:"channel"`
}

// Gateway IM 网关的 websocket 客户端。一条物理连接承载全部逻辑通道，
// 断线后按退避重拨，重连成功时补发所有在订通道的订阅指令，
// 已有的事件绑定不受影响。
type Gateway struct {
	url   string
	token string

	mu       sync.Mutex
	conn     *websocket.Conn
	channels map[string]*gatewayChannel
	started  bool
	done     chan struct{}

	// gorilla 的连接只允许一个并发写者，订阅指令可能同时来自
	// 调用方 goroutine 与重连循环，必须单独串行化
	writeMu sync.Mutex
}

func NewGateway(url, token string) *Gateway {
	return &Gateway{
		url:      url,
		token:    token,
		channels: make(map[string]*gatewayChannel),
		done:     make(chan struct{}),
	}
}

// Open 打开一个逻辑通道并向网关发订阅指令
func (g *Gateway) Open(name string) (Channel, error) {
	g.mu.Lock()
	if !g.started {
		g.started = true
		go g.run()
	}
	ch, ok := g.channels[name]
	if !ok {
		ch = &gatewayChannel{name: name, gw: g, dispatcher: newDispatcher()}
		g.channels[name] = ch
	}
	conn := g.conn
	g.mu.Unlock()

	if conn != nil {
		g.write(conn, subscribeOp{Op: "subscribe", Channel: name})
	}
	return ch, nil
}

// Shutdown 停止重连循环并断开物理连接
func (g *Gateway) Shutdown() {
	close(g.done)
	g.mu.Lock()
	if g.conn != nil {
		_ = g.conn.Close()
	}
	g.mu.Unlock()
}

// run 拨号-读帧-重连的主循环
func (g *Gateway) run() {
	backoff := wsBackoffInitial
	for {
		select {
		case <-g.done:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(g.dialURL(), nil)
		if err != nil {
			log.Warn("IM 网关连接失败，等待重试", "err", err, "backoff", backoff)
			select {
			case <-g.done:
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, wsBackoffMax)
			continue
		}
		backoff = wsBackoffInitial

		// 重连后补发全部在订通道
		g.mu.Lock()
		g.conn = conn
		names := make([]string, 0, len(g.channels))
		for name := range g.channels {
			names = append(names, name)
		}
		g.mu.Unlock()
		for _, name := range names {
			g.write(conn, subscribeOp{Op: "subscribe", Channel: name})
		}
		log.Info("IM 网关连接已建立", "channels", len(names))

		g.readLoop(conn)

		g.mu.Lock()
		g.conn = nil
		g.mu.Unlock()
	}
}

func (g *Gateway) readLoop(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-g.done:
			default:
				log.Warn("IM 网关连接断开", "err", err)
			}
			return
		}

		var frame dto.PushFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn("推送帧解析失败", "err", err)
			continue
		}

		g.mu.Lock()
		ch := g.channels[frame.Channel]
		g.mu.Unlock()
		if ch == nil {
			continue
		}

		// 兼容旧网关：没有 event 字段时整包即新消息
		if frame.Event == "" {
			ch.dispatch(consts.EventMessageNew, data)
			continue
		}
		ch.dispatch(frame.Event, frame.Payload)
	}
}

func (g *Gateway) write(conn *websocket.Conn, op subscribeOp) {
	data, err := json.Marshal(op)
	if err != nil {
		return
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Warn("订阅指令发送失败", "channel", op.Channel, "err", err)
	}
}

func (g *Gateway) dialURL() string {
	if g.token == "" {
		return g.url
	}
	return g.url + "?token=" + g.token
}

// gatewayChannel 网关上的逻辑通道
type gatewayChannel struct {
	name string
	gw   *Gateway
	*dispatcher
}

func (c *gatewayChannel) Close() error {
	c.gw.mu.Lock()
	delete(c.gw.channels, c.name)
	conn := c.gw.conn
	c.gw.mu.Unlock()

	if conn != nil {
		c.gw.write(conn, subscribeOp{Op: "unsubscribe", Channel: c.name})
	}
	return nil
}
