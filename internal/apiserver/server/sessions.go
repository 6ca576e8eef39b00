// Package server 会话查询接口
package server

import (
	"net/http"
)

// ListSessions 列出最近的会话
//
// 路由: GET /api/sessions
//
// 按最后活动时间倒序，至多 50 条。
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession 获取单个会话详情
//
// 路由: GET /api/sessions/{id}
//
// 精确匹配日志文件名优先，找不到时按文件名子串兜底。
//
// 错误响应:
//   - 404 Not Found: 会话不存在
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s := h.sessions.Get(id)
	if s == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
