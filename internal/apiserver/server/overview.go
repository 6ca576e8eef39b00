// Package server 总览与质量聚合接口
package server

import (
	"context"
	"math"
	"net/http"

	"workflow-dashboard/internal/model"
)

// recentLimit 总览中最近提交/会话的条数
const recentLimit = 5

// featureSummaryCounts 特性状态计数
type featureSummaryCounts struct {
	Total              int     `json:"total"`
	Completed          int     `json:"completed"`
	InProgress         int     `json:"in_progress"`
	Blocked            int     `json:"blocked"`
	Pending            int     `json:"pending"`
	OverallProgressPct float64 `json:"overall_progress_pct"`
}

// GetOverview 仪表盘总览
//
// 路由: GET /api/overview
//
// 单次请求聚合项目信息、特性汇总、最近提交与会话、插件统计，
// 前端首屏只需这一个调用。
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.buildOverview())
}

// buildOverview 聚合总览数据，WebSocket 的 full_refresh 也用它
func (h *Handler) buildOverview() map[string]interface{} {
	features := h.features.List()
	pc := h.projectCfg.Get()
	pluginInfo := h.plugin.Info()

	summary := summarizeFeatures(features)
	h.metrics.SetFeaturesCount("completed", summary.Completed)
	h.metrics.SetFeaturesCount("in_progress", summary.InProgress)
	h.metrics.SetFeaturesCount("blocked", summary.Blocked)
	h.metrics.SetFeaturesCount("pending", summary.Pending)

	version, _ := pluginInfo["version"].(string)

	return map[string]interface{}{
		"project": map[string]interface{}{
			"name":           pc.Name,
			"type":           pc.ProjectType,
			"description":    pc.Description,
			"plugin_version": version,
		},
		"features_summary": summary,
		"features":         features,
		"recent_commits":   h.git.Commits(context.Background(), recentLimit, ""),
		"recent_sessions":  h.sessions.Recent(recentLimit),
		"plugin_stats": map[string]int{
			"agents":   len(h.plugin.Agents()),
			"skills":   len(h.plugin.Skills()),
			"commands": len(h.plugin.Commands()),
		},
	}
}

func summarizeFeatures(features []*model.Feature) featureSummaryCounts {
	var s featureSummaryCounts
	s.Total = len(features)
	var sum float64
	for _, f := range features {
		switch f.OverallStatus {
		case "COMPLETED":
			s.Completed++
		case "IN_PROGRESS":
			s.InProgress++
		case "BLOCKED":
			s.Blocked++
		default:
			s.Pending++
		}
		sum += f.OverallProgressPct
	}
	if s.Total > 0 {
		s.OverallProgressPct = math.Round(sum/float64(s.Total)*10) / 10
	}
	return s
}

// GetQuality 质量视图
//
// 路由: GET /api/quality
//
// 按特性汇总各角色的覆盖率读数与完成任务。
func (h *Handler) GetQuality(w http.ResponseWriter, r *http.Request) {
	features := h.features.List()

	type roleQuality struct {
		Role             string   `json:"role"`
		Status           string   `json:"status"`
		ProgressPct      float64  `json:"progress_pct"`
		CoverageLines    *string  `json:"coverage_lines"`
		CoverageBranches *string  `json:"coverage_branches"`
		Blockers         []string `json:"blockers"`
		CompletedTasks   []string `json:"completed_tasks"`
	}
	type featureQuality struct {
		FeatureID string        `json:"feature_id"`
		Name      string        `json:"name"`
		Roles     []roleQuality `json:"roles"`
	}

	out := make([]featureQuality, 0, len(features))
	for _, f := range features {
		fq := featureQuality{FeatureID: f.ID, Name: f.Name, Roles: []roleQuality{}}
		for _, key := range model.RoleKeys {
			rp, ok := f.Roles[key]
			if !ok {
				continue
			}
			fq.Roles = append(fq.Roles, roleQuality{
				Role:             rp.Role,
				Status:           string(rp.Status),
				ProgressPct:      rp.ProgressPct,
				CoverageLines:    rp.CoverageLines,
				CoverageBranches: rp.CoverageBranches,
				Blockers:         rp.Blockers,
				CompletedTasks:   rp.CompletedTasks,
			})
		}
		out = append(out, fq)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"features": out})
}
