// Package server 插件元数据、项目配置与快照接口
package server

import (
	"net/http"
)

// GetPluginInfo 获取插件清单
//
// 路由: GET /api/plugin
func (h *Handler) GetPluginInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.plugin.Info())
}

// ListAgents 列出插件定义的智能体
//
// 路由: GET /api/plugin/agents
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents := h.plugin.Agents()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents": agents,
		"count":  len(agents),
	})
}

// ListSkills 列出插件定义的技能
//
// 路由: GET /api/plugin/skills
func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	skills := h.plugin.Skills()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"skills": skills,
		"count":  len(skills),
	})
}

// ListCommands 列出插件定义的命令
//
// 路由: GET /api/plugin/commands
func (h *Handler) ListCommands(w http.ResponseWriter, r *http.Request) {
	commands := h.plugin.Commands()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commands": commands,
		"count":    len(commands),
	})
}

// GetProjectConfig 获取项目配置
//
// 路由: GET /api/config
func (h *Handler) GetProjectConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.projectCfg.Get())
}

// ListSnapshots 列出快照
//
// 路由: GET /api/snapshots
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots := h.snapshots.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}
