package realtime

import "sync"

// Handler 推送帧载荷回调
type Handler func(payload []byte)

// Binding 一次事件绑定的凭据，解绑时凭它定位
type Binding struct {
	Event string
	Fn    Handler
}

// Channel 逻辑推送通道。同一个物理连接可承载多个逻辑通道。
type Channel interface {
	Bind(event string, fn Handler) *Binding
	Unbind(b *Binding)
	Close() error
}

// Dialer 按通道名建立逻辑通道
type Dialer interface {
	Open(name string) (Channel, error)
}

// dispatcher 事件名到绑定列表的分发器，ws / redis 两种通道共用
type dispatcher struct {
	mu       sync.Mutex
	bindings map[string][]*Binding
}

func newDispatcher() *dispatcher {
	return &dispatcher{bindings: make(map[string][]*Binding)}
}

func (d *dispatcher) Bind(event string, fn Handler) *Binding {
	b := &Binding{Event: event, Fn: fn}
	d.mu.Lock()
	d.bindings[event] = append(d.bindings[event], b)
	d.mu.Unlock()
	return b
}

func (d *dispatcher) Unbind(b *Binding) {
	if b == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.bindings[b.Event]
	for i, cur := range list {
		if cur == b {
			d.bindings[b.Event] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

// dispatch 复制后再回调，避免 handler 内解绑造成死锁
func (d *dispatcher) dispatch(event string, payload []byte) {
	d.mu.Lock()
	list := make([]*Binding, len(d.bindings[event]))
	copy(list, d.bindings[event])
	d.mu.Unlock()

	for _, b := range list {
		b.Fn(payload)
	}
}
