// Package server 提供 HTTP API 处理器
//
// 本包实现了工作流仪表盘的 RESTful API 与 WebSocket 推送，包括：
//   - 特性查询（Feature）接口
//   - 会话查询（Session）接口
//   - 版本控制（Git）接口
//   - 插件元数据（Plugin）接口
//   - 总览聚合（Overview）接口
//   - WebSocket 实时推送
//
// 文件组织：
//   - common.go: 通用工具函数和 Handler 定义
//   - handler.go: 路由配置
//   - features.go: 特性相关接口
//   - sessions.go: 会话相关接口
//   - git.go: 版本控制接口
//   - plugin.go: 插件/配置/快照接口
//   - overview.go: 总览与质量聚合
//   - websocket.go: WebSocket 事件网关
//   - dispatch.go: 文件事件派发循环
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"workflow-dashboard/internal/config"
	"workflow-dashboard/internal/gitcli"
	"workflow-dashboard/internal/storage"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到对应的处理函数
//   - 管理各 Store 与 git 适配器
//   - 协调事件网关与文件事件派发
//
// 所有接口只读：仪表盘从不修改被观察的工作区。
type Handler struct {
	cfg *config.Config

	features   *storage.FeatureStore
	sessions   *storage.SessionStore
	plugin     *storage.PluginStore
	snapshots  *storage.SnapshotStore
	projectCfg *storage.ConfigStore
	git        *gitcli.Client

	gateway *EventGateway
	metrics *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(cfg *config.Config) *Handler {
	cache := storage.OpenSessionCache(cfg.CacheDBPath)

	h := &Handler{
		cfg:        cfg,
		features:   storage.NewFeatureStore(cfg.FeaturesDir),
		sessions:   storage.NewSessionStore(cfg.SessionLogsDir, cache),
		plugin:     storage.NewPluginStore(cfg.PluginJSONPath, cfg.AgentsDir, cfg.SkillsDir, cfg.CommandsDir),
		snapshots:  storage.NewSnapshotStore(cfg.SnapshotsDir),
		projectCfg: storage.NewConfigStore(cfg.ConfigPath),
		git:        gitcli.NewClient(cfg),
		metrics:    NewMetrics("dashboard"),
	}
	h.gateway = NewEventGateway(h.buildOverview, h.metrics)
	return h
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError 将错误信息以 JSON 格式写入 HTTP 响应
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
