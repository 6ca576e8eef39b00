// Package server 版本控制接口
//
// git 数据按需从命令行获取，不进入缓存。仓库缺失、git 不可用
// 等情况一律表现为空列表，接口不报错。
package server

import (
	"net/http"
	"strconv"
)

// defaultCommitLimit 提交列表默认条数
const defaultCommitLimit = 20

// ListCommits 列出最近的提交
//
// 路由: GET /api/git/commits
//
// 查询参数:
//   - limit: 返回数量限制，默认 20，最大 200
//   - feature: 按特性 id 过滤提交主题（子串匹配，大小写不敏感）
func (h *Handler) ListCommits(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = defaultCommitLimit
	}
	grep := r.URL.Query().Get("feature")

	commits := h.git.Commits(r.Context(), limit, grep)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commits": commits,
		"count":   len(commits),
	})
}

// ListBranches 列出全部分支
//
// 路由: GET /api/git/branches
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches := h.git.Branches(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"branches": branches,
		"count":    len(branches),
	})
}

// GetCommitFiles 获取一次提交改动的文件清单
//
// 路由: GET /api/git/commits/{hash}/files
func (h *Handler) GetCommitFiles(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	files := h.git.CommitFiles(r.Context(), hash)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hash":  hash,
		"files": files,
		"count": len(files),
	})
}

// GetCommitDiff 获取一次提交的补丁文本
//
// 路由: GET /api/git/commits/{hash}/diff
//
// 超长补丁在服务端截断，末尾带截断说明。
func (h *Handler) GetCommitDiff(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	diff := h.git.Diff(r.Context(), hash)
	writeJSON(w, http.StatusOK, map[string]string{
		"hash": hash,
		"diff": diff,
	})
}
