// Package model 定义核心数据模型
//
// session.go 包含会话日志汇总模型：
//   - Session：一次编码会话的统计汇总
//   - ToolCallSummary：工具调用计数
//
// 不变量：MessageCount == UserMessageCount + AssistantMessageCount。
// ToolCalls 按调用次数降序排列。
package model

// ToolCallSummary 工具调用计数
type ToolCallSummary struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// Session 一次编码会话的统计汇总
type Session struct {
	SessionID             string            `json:"session_id"`
	Slug                  string            `json:"slug"`
	GitBranch             *string           `json:"git_branch"`
	StartedAt             *string           `json:"started_at"`
	LastActivityAt        *string           `json:"last_activity_at"`
	DurationSeconds       int               `json:"duration_seconds"`
	MessageCount          int               `json:"message_count"`
	UserMessageCount      int               `json:"user_message_count"`
	AssistantMessageCount int               `json:"assistant_message_count"`
	ToolCalls             []ToolCallSummary `json:"tool_calls"`
	Model                 *string           `json:"model"`
	PermissionMode        *string           `json:"permission_mode"`
	Cwd                   string            `json:"cwd"`
	TotalInputTokens      int               `json:"total_input_tokens"`
	TotalOutputTokens     int               `json:"total_output_tokens"`
}
