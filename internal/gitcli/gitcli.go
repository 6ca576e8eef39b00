// Package gitcli git 命令行适配器
//
// 通过 os/exec 调用仓库所在目录下的 git，输出交给 parser 包解析。
// 所有操作遵循空值降级：git 不存在、目录不是仓库、命令超时，
// 一律记录日志并返回空结果，不向上传播错误。
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"workflow-dashboard/internal/config"
	"workflow-dashboard/internal/model"
	"workflow-dashboard/internal/parser"
)

// logFormat 提交行的字段布局，与 parser.ParseLog 对应
const logFormat = "--format=%H|%h|%s|%an|%aI"

// Client git 适配器
type Client struct {
	repoDir      string
	bin          string
	logTimeout   time.Duration
	auxTimeout   time.Duration
	diffTimeout  time.Duration
	diffMaxLines int
}

// NewClient 创建 git 适配器
func NewClient(cfg *config.Config) *Client {
	return &Client{
		repoDir:      cfg.ProjectRoot,
		bin:          cfg.GitBin,
		logTimeout:   cfg.GitLogTimeout,
		auxTimeout:   cfg.GitAuxTimeout,
		diffTimeout:  cfg.GitDiffTimeout,
		diffMaxLines: cfg.DiffMaxLines,
	}
}

// run 在仓库目录下执行一条 git 命令
//
// 任何失败（启动、退出码、超时）都返回空串与 false。
func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Dir = c.repoDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Printf("[gitcli] git %s failed: %v (%s)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
		return "", false
	}
	return stdout.String(), true
}

// Commits 返回最近的提交记录
//
// grep 非空时按提交主题过滤（git log --grep，固定字符串匹配）。
func (c *Client) Commits(ctx context.Context, limit int, grep string) []model.Commit {
	args := []string{"log", fmt.Sprintf("--max-count=%d", limit), logFormat, "--shortstat"}
	if grep != "" {
		args = append(args, "--grep="+grep, "--fixed-strings", "--regexp-ignore-case")
	}
	out, ok := c.run(ctx, c.logTimeout, args...)
	if !ok {
		return []model.Commit{}
	}
	commits := parser.ParseLog(out)
	if commits == nil {
		commits = []model.Commit{}
	}
	return commits
}

// Branches 返回全部分支名（本地与远端）
func (c *Client) Branches(ctx context.Context) []string {
	out, ok := c.run(ctx, c.auxTimeout, "branch", "--all", "--format=%(refname:short)")
	if !ok {
		return []string{}
	}
	branches := parser.ParseBranches(out)
	if branches == nil {
		branches = []string{}
	}
	return branches
}

// CommitFiles 返回一次提交改动的文件清单
//
// numstat 提供行数、name-status 提供改动类型，按路径合并。
func (c *Client) CommitFiles(ctx context.Context, hash string) []model.CommitFile {
	numstat, ok := c.run(ctx, c.auxTimeout, "show", hash, "--numstat", "--format=")
	if !ok {
		return []model.CommitFile{}
	}
	nameStatus, ok := c.run(ctx, c.auxTimeout, "show", hash, "--name-status", "--format=")
	if !ok {
		nameStatus = ""
	}
	files := parser.ParseCommitFiles(numstat, nameStatus)
	if files == nil {
		files = []model.CommitFile{}
	}
	return files
}

// Diff 返回一次提交的补丁文本
//
// 超过行数上限时截断，并在末尾追加截断说明。
func (c *Client) Diff(ctx context.Context, hash string) string {
	out, ok := c.run(ctx, c.diffTimeout, "show", hash, "--patch", "--format=")
	if !ok {
		return ""
	}
	lines := strings.Split(out, "\n")
	if len(lines) <= c.diffMaxLines {
		return out
	}
	truncated := strings.Join(lines[:c.diffMaxLines], "\n")
	return truncated + fmt.Sprintf("\n... (truncated, %d lines total)", len(lines))
}
