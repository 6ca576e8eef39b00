// Package parser 半结构化文档解析
//
// session.go 解析追加式会话日志：每行一条 JSON 记录，
// 坏行静默跳过。零消息的日志视为不存在（返回 nil）。
package parser

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"workflow-dashboard/internal/model"
)

// sessionRecord 会话日志单条记录（只取用到的字段）
type sessionRecord struct {
	Type           string `json:"type"`
	SessionID      string `json:"sessionId"`
	Slug           string `json:"slug"`
	GitBranch      string `json:"gitBranch"`
	Cwd            string `json:"cwd"`
	PermissionMode string `json:"permissionMode"`
	Timestamp      string `json:"timestamp"`
	Message        struct {
		Model string `json:"model"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
		Content []struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"content"`
	} `json:"message"`
}

// ParseSession 解析一份会话日志
//
// fallbackID 通常取自文件名（去扩展名），记录内的 sessionId 优先。
// 累计规则：
//   - user/assistant 记录分别计数
//   - 概览字段（slug、分支、工作目录、权限模式）后出现的非空值覆盖先前值
//   - assistant 记录累加 token 用量、按 content 中 tool_use 块统计工具调用
//   - user 记录的时间戳排序后推导起止与时长（解析失败仅放弃时长）
//
// 日志总消息数为零时返回 nil。
func ParseSession(r io.Reader, fallbackID string) *model.Session {
	s := &model.Session{SessionID: fallbackID}

	var timestamps []string
	toolCounts := make(map[string]int)

	// 单行可能很大（嵌入文件内容），用 ReadString 而非 Scanner，
	// 避免超长行中断整份日志的解析
	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		raw, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			log.Printf("Session %s: log read aborted: %v", fallbackID, readErr)
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			if readErr != nil {
				break
			}
			continue
		}
		var rec sessionRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			if readErr != nil {
				break
			}
			continue
		}

		switch rec.Type {
		case "user":
			s.UserMessageCount++
			s.MessageCount++

			if rec.SessionID != "" {
				s.SessionID = rec.SessionID
			}
			if rec.Slug != "" {
				s.Slug = rec.Slug
			}
			if rec.GitBranch != "" {
				v := rec.GitBranch
				s.GitBranch = &v
			}
			if rec.Cwd != "" {
				s.Cwd = rec.Cwd
			}
			if rec.PermissionMode != "" {
				v := rec.PermissionMode
				s.PermissionMode = &v
			}
			if rec.Timestamp != "" {
				timestamps = append(timestamps, rec.Timestamp)
			}

		case "assistant":
			s.AssistantMessageCount++
			s.MessageCount++

			if rec.Message.Model != "" {
				v := rec.Message.Model
				s.Model = &v
			}
			s.TotalInputTokens += rec.Message.Usage.InputTokens
			s.TotalOutputTokens += rec.Message.Usage.OutputTokens

			for _, block := range rec.Message.Content {
				if block.Type == "tool_use" {
					name := block.Name
					if name == "" {
						name = "unknown"
					}
					toolCounts[name]++
				}
			}
		}

		if readErr != nil {
			break
		}
	}

	if len(timestamps) > 0 {
		sort.Strings(timestamps)
		first := timestamps[0]
		last := timestamps[len(timestamps)-1]
		s.StartedAt = &first
		s.LastActivityAt = &last

		// 时长尽力而为：时间戳解析失败不影响其余字段
		start, errS := time.Parse(time.RFC3339, first)
		end, errE := time.Parse(time.RFC3339, last)
		if errS == nil && errE == nil {
			s.DurationSeconds = int(end.Sub(start).Seconds())
		}
	}

	s.ToolCalls = make([]model.ToolCallSummary, 0, len(toolCounts))
	for name, count := range toolCounts {
		s.ToolCalls = append(s.ToolCalls, model.ToolCallSummary{Tool: name, Count: count})
	}
	sort.Slice(s.ToolCalls, func(i, j int) bool {
		if s.ToolCalls[i].Count != s.ToolCalls[j].Count {
			return s.ToolCalls[i].Count > s.ToolCalls[j].Count
		}
		return s.ToolCalls[i].Tool < s.ToolCalls[j].Tool
	})

	if s.MessageCount == 0 {
		return nil
	}
	return s
}
