// Package server WebSocket 事件网关单元测试
//
// 本文件测试 EventGateway 与事件派发循环：
//
// # 测试分组
//
// ## 构造与连接管理
//   - TestNewEventGateway: 网关创建、字段初始化
//   - TestAddRemoveClient: 添加/移除客户端与计数
//
// ## 广播
//   - TestBroadcast_NoClients: 无客户端时广播不 panic
//   - TestBroadcast_Delivered: 消息送达全部客户端
//   - TestBroadcast_DeadClientRemoved: 写失败的连接被移除
//
// ## 协议
//   - TestHandleWebSocket_PingPong: 文本心跳
//   - TestHandleWebSocket_RequestRefresh: 全量刷新请求
//
// ## 事件派发
//   - TestDispatcher_StateDoc: 状态文档变更广播 feature_update 并刷新缓存
//   - TestDispatcher_SessionLog: 会话日志变更广播 session_update
//   - TestDispatcher_OtherFile: 其余文件广播 file_changed
//
// # 运行方式
//
//	go test -v -run TestBroadcast ./internal/apiserver/server/
//	go test -v -run TestDispatcher ./internal/apiserver/server/
package server

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"workflow-dashboard/internal/watcher"
)

// ============================================================================
// 测试脚手架
// ============================================================================

// waitForClients 等待网关达到期望连接数
func waitForClients(t *testing.T, g *EventGateway, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if g.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, got %d", want, g.ClientCount())
}

// readMessage 读一条 JSON 消息，带超时
func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]interface{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	return msg
}

// ============================================================================
// 构造与连接管理
// ============================================================================

func TestNewEventGateway(t *testing.T) {
	g := NewEventGateway(func() map[string]interface{} { return nil }, nil)
	if g.clients == nil {
		t.Fatal("clients map not initialized")
	}
	if g.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", g.ClientCount())
	}
}

func TestAddRemoveClient(t *testing.T) {
	g := NewEventGateway(func() map[string]interface{} { return nil }, nil)
	c := &wsClient{}

	g.addClient(c)
	if g.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", g.ClientCount())
	}
	g.removeClient(c)
	if g.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", g.ClientCount())
	}
	// 重复移除不 panic、不影响计数
	g.removeClient(c)
	if g.ClientCount() != 0 {
		t.Errorf("expected 0 clients after double remove, got %d", g.ClientCount())
	}
}

// ============================================================================
// 广播
// ============================================================================

func TestBroadcast_NoClients(t *testing.T) {
	g := NewEventGateway(func() map[string]interface{} { return nil }, nil)
	g.Broadcast("feature_update", map[string]string{"id": "x"}) // 不 panic 即可
}

func TestBroadcast_Delivered(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn1, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn1.Close()
	conn2, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn2.Close()

	waitForClients(t, h.gateway, 2)

	h.gateway.Broadcast("feature_update", map[string]string{"id": "user-auth"})

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		msg := readMessage(t, conn)
		if msg["type"] != "feature_update" {
			t.Errorf("expected feature_update, got %v", msg["type"])
		}
		data := msg["data"].(map[string]interface{})
		if data["id"] != "user-auth" {
			t.Errorf("expected id user-auth, got %v", data["id"])
		}
	}
}

func TestBroadcast_DeadClientRemoved(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}

	waitForClients(t, h.gateway, 1)

	// 客户端直接断开，服务端在后续广播中发现并清理
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.gateway.Broadcast("file_changed", map[string]string{"path": "/x"})
		if h.gateway.ClientCount() == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dead client was not removed, %d still active", h.gateway.ClientCount())
}

// ============================================================================
// 协议
// ============================================================================

func TestHandleWebSocket_PingPong(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	msg := readMessage(t, conn)
	if msg["type"] != "pong" {
		t.Errorf("expected pong, got %v", msg["type"])
	}
}

func TestHandleWebSocket_RequestRefresh(t *testing.T) {
	h, root := newTestHandler(t)
	seedFeature(t, root, "user-auth", testStateDoc)

	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "request_refresh"}); err != nil {
		t.Fatalf("write request_refresh: %v", err)
	}
	msg := readMessage(t, conn)
	if msg["type"] != "full_refresh" {
		t.Fatalf("expected full_refresh, got %v", msg["type"])
	}
	data := msg["data"].(map[string]interface{})
	summary := data["features_summary"].(map[string]interface{})
	if summary["total"].(float64) != 1 {
		t.Errorf("expected total 1 in refresh payload, got %v", summary["total"])
	}
}

// ============================================================================
// 事件派发
// ============================================================================

func startDispatcherClient(t *testing.T, h *Handler) (chan watcher.Event, *websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(h.Router())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial websocket: %v", err)
	}
	waitForClients(t, h.gateway, 1)

	events := make(chan watcher.Event, 8)
	go h.StartDispatcher(events)

	return events, conn, func() {
		close(events)
		conn.Close()
		srv.Close()
	}
}

func TestDispatcher_StateDoc(t *testing.T) {
	h, root := newTestHandler(t)
	seedFeature(t, root, "user-auth", testStateDoc)

	// 先加载进缓存，之后验证派发会刷新它
	if f := h.features.Get("user-auth"); f == nil || f.OverallProgressPct != 50.0 {
		t.Fatal("seed feature did not load")
	}

	events, conn, cleanup := startDispatcherClient(t, h)
	defer cleanup()

	statePath := filepath.Join(root, ".ai", "project", "features", "user-auth", "50_state.md")
	updated := "## Backend\n\n**Status**: `COMPLETED`\n"
	if err := os.WriteFile(statePath, []byte(updated), 0o644); err != nil {
		t.Fatalf("update state doc: %v", err)
	}

	events <- watcher.Event{Path: statePath, Kind: watcher.KindStateDoc}

	msg := readMessage(t, conn)
	if msg["type"] != "feature_update" {
		t.Fatalf("expected feature_update, got %v", msg["type"])
	}
	data := msg["data"].(map[string]interface{})
	if data["id"] != "user-auth" {
		t.Errorf("expected id user-auth, got %v", data["id"])
	}
	if data["overall_progress_pct"].(float64) != 100.0 {
		t.Errorf("expected refreshed progress 100, got %v", data["overall_progress_pct"])
	}

	// 缓存同步刷新
	if f := h.features.Get("user-auth"); f == nil || f.OverallProgressPct != 100.0 {
		t.Error("feature cache was not refreshed")
	}
}

func TestDispatcher_SessionLog(t *testing.T) {
	h, root := newTestHandler(t)
	seedSession(t, root, "abc-123", `{"type":"user","sessionId":"abc-123"}`+"\n")

	events, conn, cleanup := startDispatcherClient(t, h)
	defer cleanup()

	events <- watcher.Event{
		Path: filepath.Join(root, "session-logs", "abc-123.jsonl"),
		Kind: watcher.KindSessionLog,
	}

	msg := readMessage(t, conn)
	if msg["type"] != "session_update" {
		t.Fatalf("expected session_update, got %v", msg["type"])
	}
	data := msg["data"].(map[string]interface{})
	sessions := data["sessions"].([]interface{})
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
}

func TestDispatcher_OtherFile(t *testing.T) {
	h, _ := newTestHandler(t)

	events, conn, cleanup := startDispatcherClient(t, h)
	defer cleanup()

	events <- watcher.Event{Path: "/x/notes.md", Kind: watcher.KindOther}

	msg := readMessage(t, conn)
	if msg["type"] != "file_changed" {
		t.Fatalf("expected file_changed, got %v", msg["type"])
	}
	data := msg["data"].(map[string]interface{})
	if data["path"] != "/x/notes.md" {
		t.Errorf("expected path /x/notes.md, got %v", data["path"])
	}
}
