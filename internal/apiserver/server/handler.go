// Package server 路由配置
//
// 本文件定义 HTTP API 路由。
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//   - GET /metrics - Prometheus 指标
//
// 总览:
//   - GET /api/overview - 仪表盘总览
//   - GET /api/quality  - 质量视图
//
// 特性查询 (Feature):
//   - GET /api/features                          - 列出特性
//   - GET /api/features/{id}                     - 获取特性详情
//   - GET /api/features/{id}/tasks               - 获取任务列表
//   - GET /api/features/{id}/artifacts           - 获取制品列表
//   - GET /api/features/{id}/artifact/{filename} - 获取制品原文
//
// 会话查询 (Session):
//   - GET /api/sessions      - 列出最近会话
//   - GET /api/sessions/{id} - 获取会话详情
//
// 版本控制 (Git):
//   - GET /api/git/commits              - 列出提交
//   - GET /api/git/branches             - 列出分支
//   - GET /api/git/commits/{hash}/files - 提交文件清单
//   - GET /api/git/commits/{hash}/diff  - 提交补丁
//
// 插件与配置:
//   - GET /api/plugin          - 插件清单
//   - GET /api/plugin/agents   - 智能体列表
//   - GET /api/plugin/skills   - 技能列表
//   - GET /api/plugin/commands - 命令列表
//   - GET /api/config          - 项目配置
//   - GET /api/snapshots       - 快照列表
//
// WebSocket:
//   - GET /ws - 实时推送
package server

import (
	"net/http"
)

// Router 返回配置好的 HTTP 路由
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", h.metrics.Handler())

	// 总览
	mux.HandleFunc("GET /api/overview", h.GetOverview)
	mux.HandleFunc("GET /api/quality", h.GetQuality)

	// Feature 接口
	mux.HandleFunc("GET /api/features", h.ListFeatures)
	mux.HandleFunc("GET /api/features/{id}", h.GetFeature)
	mux.HandleFunc("GET /api/features/{id}/tasks", h.GetFeatureTasks)
	mux.HandleFunc("GET /api/features/{id}/artifacts", h.GetFeatureArtifacts)
	mux.HandleFunc("GET /api/features/{id}/artifact/{filename}", h.GetFeatureArtifact)

	// Session 接口
	mux.HandleFunc("GET /api/sessions", h.ListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)

	// Git 接口
	mux.HandleFunc("GET /api/git/commits", h.ListCommits)
	mux.HandleFunc("GET /api/git/branches", h.ListBranches)
	mux.HandleFunc("GET /api/git/commits/{hash}/files", h.GetCommitFiles)
	mux.HandleFunc("GET /api/git/commits/{hash}/diff", h.GetCommitDiff)

	// 插件与配置接口
	mux.HandleFunc("GET /api/plugin", h.GetPluginInfo)
	mux.HandleFunc("GET /api/plugin/agents", h.ListAgents)
	mux.HandleFunc("GET /api/plugin/skills", h.ListSkills)
	mux.HandleFunc("GET /api/plugin/commands", h.ListCommands)
	mux.HandleFunc("GET /api/config", h.GetProjectConfig)
	mux.HandleFunc("GET /api/snapshots", h.ListSnapshots)

	// 应用指标中间件到 REST API
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用 CORS 中间件
	corsHandler := corsMiddleware(apiHandler)

	// 顶层路由，WebSocket 绕过 metrics 中间件（避免 http.Hijacker 问题）
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /ws", h.gateway.HandleWebSocket)
	topMux.Handle("/", corsHandler)

	return topMux
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
