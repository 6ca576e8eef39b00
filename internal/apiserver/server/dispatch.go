// Package server 文件事件派发循环
//
// 单一 goroutine 消费监听器的事件流，完成缓存失效、重新加载
// 与 WebSocket 广播。所有状态变更集中在这一个循环里，
// Store 自身的锁只需要保护读写，不需要跨事件的协调。
package server

import (
	"log"
	"path/filepath"
	"strings"

	"workflow-dashboard/internal/watcher"
)

// sessionUpdateLimit session_update 消息携带的最近会话条数
const sessionUpdateLimit = 3

// StartDispatcher 启动事件派发循环
//
// 消费监听器事件直到通道关闭。按事件类型处理：
//   - 状态文档：失效并重载对应特性，广播 feature_update；
//     文档被删除时广播 file_changed
//   - 会话日志：广播 session_update，携带最近几条会话
//   - 其他文件：广播 file_changed
func (h *Handler) StartDispatcher(events <-chan watcher.Event) {
	for ev := range events {
		h.metrics.RecordWatcherEvent(string(ev.Kind))
		switch ev.Kind {
		case watcher.KindStateDoc:
			h.dispatchStateDoc(ev.Path)
		case watcher.KindSessionLog:
			h.gateway.Broadcast("session_update", map[string]interface{}{
				"sessions": h.sessions.Recent(sessionUpdateLimit),
			})
		default:
			h.gateway.Broadcast("file_changed", map[string]string{"path": ev.Path})
		}
	}
	log.Printf("event dispatcher stopped")
}

func (h *Handler) dispatchStateDoc(path string) {
	id := featureIDFromPath(path)
	if id == "" {
		h.features.InvalidateAll()
		h.gateway.Broadcast("file_changed", map[string]string{"path": path})
		return
	}

	h.features.Invalidate(id)
	f := h.features.Get(id)
	if f == nil {
		// 文档被删除，只通知路径变化
		h.gateway.Broadcast("file_changed", map[string]string{"path": path})
		return
	}
	h.gateway.Broadcast("feature_update", f)
}

// featureIDFromPath 从状态文档路径提取特性 id
//
// 约定布局 .../features/<feature-id>/50_state.md，
// 取 "features" 之后的第一段。
func featureIDFromPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, p := range parts {
		if p == "features" && i+1 < len(parts)-1 {
			return parts[i+1]
		}
	}
	return ""
}
