// Package parser 半结构化文档解析
//
// gitlog.go 解析 git 的文本输出：
//   - ParseLog: 竖线分隔的 log 行（hash|short|subject|author|date），
//     紧随其后的 --shortstat 汇总行归属到前一条提交
//   - ParseCommitFiles: --numstat 与 --name-status 的制表符分隔输出，
//     按路径合并为 CommitFile
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"workflow-dashboard/internal/model"
)

var (
	reStatFiles      = regexp.MustCompile(`(\d+) files? changed`)
	reStatInsertions = regexp.MustCompile(`(\d+) insertions?`)
	reStatDeletions  = regexp.MustCompile(`(\d+) deletions?`)
)

// ParseLog 解析竖线分隔的 log 输出
func ParseLog(output string) []model.Commit {
	var commits []model.Commit
	lines := strings.Split(strings.TrimSpace(output), "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || !strings.Contains(line, "|") {
			continue
		}
		parts := strings.SplitN(line, "|", 5)
		if len(parts) < 5 {
			continue
		}

		commit := model.Commit{
			Hash:      parts[0],
			ShortHash: parts[1],
			Message:   parts[2],
			Author:    parts[3],
			Date:      parts[4],
		}

		// shortstat 行跟在提交行后面
		if i+1 < len(lines) {
			stat := strings.TrimSpace(lines[i+1])
			matched := false
			if m := reStatFiles.FindStringSubmatch(stat); m != nil {
				commit.FilesChanged, _ = strconv.Atoi(m[1])
				matched = true
			}
			if m := reStatInsertions.FindStringSubmatch(stat); m != nil {
				commit.Insertions, _ = strconv.Atoi(m[1])
				matched = true
			}
			if m := reStatDeletions.FindStringSubmatch(stat); m != nil {
				commit.Deletions, _ = strconv.Atoi(m[1])
				matched = true
			}
			if matched {
				i++
			}
		}

		commits = append(commits, commit)
	}
	return commits
}

// ParseBranches 解析 branch 列表输出（一行一个引用名）
func ParseBranches(output string) []string {
	var branches []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			branches = append(branches, line)
		}
	}
	return branches
}

// nameStatusMap name-status 状态字母到可读状态的映射
var nameStatusMap = map[byte]string{
	'A': "added",
	'M': "modified",
	'D': "deleted",
	'R': "renamed",
	'C': "copied",
}

// ParseCommitFiles 合并 numstat 与 name-status 输出
//
// numstat 行：`<insertions>\t<deletions>\t<path>`（二进制文件为 "-"）。
// name-status 行：`<status>\t<path>`（重命名为 `R<score>\t<old>\t<new>`）。
// 状态未解析到的路径默认 modified。
func ParseCommitFiles(numstatOut, nameStatusOut string) []model.CommitFile {
	statuses := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(nameStatusOut), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 || fields[0] == "" {
			continue
		}
		status, ok := nameStatusMap[fields[0][0]]
		if !ok {
			status = "modified"
		}
		// 重命名/复制取新路径
		path := fields[len(fields)-1]
		statuses[path] = status
	}

	var files []model.CommitFile
	for _, line := range strings.Split(strings.TrimSpace(numstatOut), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		cf := model.CommitFile{Path: fields[2], Status: "modified"}
		if s, ok := statuses[cf.Path]; ok {
			cf.Status = s
		}
		// 二进制文件的 "-" 计数保持为 0
		cf.Insertions, _ = strconv.Atoi(fields[0])
		cf.Deletions, _ = strconv.Atoi(fields[1])
		files = append(files, cf)
	}
	return files
}
