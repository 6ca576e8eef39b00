// Package server WebSocket 事件网关
//
// 事件网关提供实时推送能力，前端无需轮询即可看到工作区变化。
// 使用 WebSocket 协议，支持双向通信。
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader WebSocket 升级器配置
//
// CheckOrigin 当前允许所有来源：服务只监听回环地址，
// 跨域限制交给部署环境。
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
)

// wsClient 一个已连接的客户端
//
// 广播与请求响应来自不同 goroutine，写操作用互斥锁串行化。
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// EventGateway WebSocket 事件网关
//
// 事件网关负责：
//   - 管理 WebSocket 连接
//   - 将文件变化产生的更新广播给全部客户端
//   - 响应客户端的 ping 与全量刷新请求
//
// 所有客户端订阅同一条流，没有按主题的订阅粒度。
type EventGateway struct {
	snapshot func() map[string]interface{} // 全量刷新的数据源
	metrics  *Metrics

	mu      sync.RWMutex
	clients map[*wsClient]bool
}

// NewEventGateway 创建事件网关实例
//
// snapshot 在客户端请求 full_refresh 时调用，返回当前总览。
func NewEventGateway(snapshot func() map[string]interface{}, metrics *Metrics) *EventGateway {
	return &EventGateway{
		snapshot: snapshot,
		metrics:  metrics,
		clients:  make(map[*wsClient]bool),
	}
}

// ClientCount 当前连接数
func (g *EventGateway) ClientCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

// HandleWebSocket 处理 WebSocket 连接请求
//
// 路由: GET /ws
//
// 推送消息格式：
//
//	{"type": "feature_update", "data": {...}}
//	{"type": "session_update", "data": {"sessions": [...]}}
//	{"type": "file_changed", "data": {"path": "..."}}
//	{"type": "full_refresh", "data": {...}}
//
// 客户端消息：
//
//	心跳：{"type": "ping"} -> 响应 {"type": "pong"}
//	刷新：{"type": "request_refresh"} -> 响应 full_refresh
func (g *EventGateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}
	g.addClient(client)
	defer g.removeClient(client)

	log.Printf("WebSocket client connected (%d active)", g.ClientCount())

	done := make(chan struct{})
	go g.pingLoop(client, done)
	defer close(done)

	g.readPump(client)
}

func (g *EventGateway) addClient(c *wsClient) {
	g.mu.Lock()
	g.clients[c] = true
	g.mu.Unlock()
	if g.metrics != nil {
		g.metrics.WSConnectionOpened()
	}
}

func (g *EventGateway) removeClient(c *wsClient) {
	g.mu.Lock()
	removed := g.clients[c]
	delete(g.clients, c)
	g.mu.Unlock()
	if removed && g.metrics != nil {
		g.metrics.WSConnectionClosed()
	}
}

// readPump 读取客户端消息直到连接关闭
func (g *EventGateway) readPump(c *wsClient) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		// 文本心跳也会刷新读超时，兼容不发协议级 pong 的客户端
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var req map[string]interface{}
		if json.Unmarshal(msg, &req) != nil {
			continue
		}
		switch req["type"] {
		case "ping":
			c.writeJSON(map[string]string{"type": "pong"})
		case "request_refresh":
			c.writeJSON(map[string]interface{}{
				"type": "full_refresh",
				"data": g.snapshot(),
			})
			if g.metrics != nil {
				g.metrics.RecordBroadcast("full_refresh")
			}
		}
	}
}

// pingLoop 周期性发送协议级 ping 保持连接
func (g *EventGateway) pingLoop(c *wsClient, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

// Broadcast 广播一条消息到全部客户端
//
// 写失败的连接在本轮扇出结束后移除，由其 readPump 负责善后。
func (g *EventGateway) Broadcast(msgType string, data interface{}) {
	g.mu.RLock()
	clients := make([]*wsClient, 0, len(g.clients))
	for c := range g.clients {
		clients = append(clients, c)
	}
	g.mu.RUnlock()

	msg := map[string]interface{}{
		"type": msgType,
		"data": data,
	}

	var dead []*wsClient
	for _, c := range clients {
		if err := c.writeJSON(msg); err != nil {
			log.Printf("Broadcast error: %v", err)
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		c.conn.Close()
		g.removeClient(c)
	}

	if g.metrics != nil {
		g.metrics.RecordBroadcast(msgType)
	}
}
