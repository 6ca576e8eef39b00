// Package server 特性查询接口
package server

import (
	"net/http"
)

// ListFeatures 列出全部特性
//
// 路由: GET /api/features
//
// 响应:
//
//	{"features": [...], "count": 3}
func (h *Handler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	features := h.features.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"features": features,
		"count":    len(features),
	})
}

// GetFeature 获取单个特性详情
//
// 路由: GET /api/features/{id}
//
// 错误响应:
//   - 404 Not Found: 特性不存在
func (h *Handler) GetFeature(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f := h.features.Get(id)
	if f == nil {
		writeError(w, http.StatusNotFound, "feature not found")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// GetFeatureTasks 获取特性的任务列表
//
// 路由: GET /api/features/{id}/tasks
//
// 任务来自特性目录下的全部任务文档，按文件名顺序聚合。
func (h *Handler) GetFeatureTasks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.features.Get(id) == nil {
		writeError(w, http.StatusNotFound, "feature not found")
		return
	}
	tasks := h.features.Tasks(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetFeatureArtifacts 获取特性的制品文件名列表
//
// 路由: GET /api/features/{id}/artifacts
func (h *Handler) GetFeatureArtifacts(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.features.Get(id) == nil {
		writeError(w, http.StatusNotFound, "feature not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"artifacts": h.features.Artifacts(id),
	})
}

// GetFeatureArtifact 获取单个制品文档原文
//
// 路由: GET /api/features/{id}/artifact/{filename}
//
// 响应:
//
//	{"filename": "10_architecture.md", "content": "..."}
//
// 错误响应:
//   - 404 Not Found: 特性或文件不存在（含越权路径）
func (h *Handler) GetFeatureArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	filename := r.PathValue("filename")

	content, ok := h.features.ArtifactContent(id, filename)
	if !ok {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"filename": filename,
		"content":  content,
	})
}
