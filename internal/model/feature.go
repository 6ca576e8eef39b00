// Package model 定义核心数据模型
//
// feature.go 包含特性进度相关的数据模型定义：
//   - RoleStatus：角色状态枚举（含容错解析）
//   - RoleProgress：单角色进度
//   - PhaseProgress：阶段进度
//   - Decision：决策记录
//   - Feature：特性聚合根（含状态汇总规则）
//
// Feature 由状态文档解析产生，每次重新解析整体替换，不做增量修补。
// overall_status / overall_progress_pct 永远从 roles 派生，不单独赋值。
package model

import (
	"math"
	"strings"
)

// ============================================================================
// RoleStatus - 角色状态枚举
// ============================================================================

// RoleStatus 角色状态
type RoleStatus string

const (
	RoleStatusPending        RoleStatus = "PENDING"
	RoleStatusInProgress     RoleStatus = "IN_PROGRESS"
	RoleStatusBlocked        RoleStatus = "BLOCKED"
	RoleStatusWaitingAPI     RoleStatus = "WAITING_API"
	RoleStatusCompleted      RoleStatus = "COMPLETED"
	RoleStatusApproved       RoleStatus = "APPROVED"
	RoleStatusRejected       RoleStatus = "REJECTED"
	RoleStatusReadyForReview RoleStatus = "READY_FOR_REVIEW"
	RoleStatusUnknown        RoleStatus = "UNKNOWN"
)

var knownRoleStatuses = map[RoleStatus]bool{
	RoleStatusPending:        true,
	RoleStatusInProgress:     true,
	RoleStatusBlocked:        true,
	RoleStatusWaitingAPI:     true,
	RoleStatusCompleted:      true,
	RoleStatusApproved:       true,
	RoleStatusRejected:       true,
	RoleStatusReadyForReview: true,
	RoleStatusUnknown:        true,
}

// RoleStatusFromString 容错解析状态标记
//
// 归一化规则：去除首尾空白和反引号、转大写、内部空格替换为下划线。
// 无法识别的标记返回 UNKNOWN，永不报错。
func RoleStatusFromString(value string) RoleStatus {
	clean := strings.TrimSpace(value)
	clean = strings.Trim(clean, "`")
	clean = strings.ToUpper(clean)
	clean = strings.ReplaceAll(clean, " ", "_")
	s := RoleStatus(clean)
	if knownRoleStatuses[s] {
		return s
	}
	return RoleStatusUnknown
}

// RoleKeys 固定的四个角色键，按展示顺序排列
var RoleKeys = []string{"planner", "backend", "frontend", "qa"}

// ============================================================================
// RoleProgress - 单角色进度
// ============================================================================

// RoleProgress 单角色进度
//
// 可选字段使用指针类型表达"文档未提供"，区别于零值。
type RoleProgress struct {
	Role             string     `json:"role"`
	Status           RoleStatus `json:"status"`
	CompletionSignal *bool      `json:"completion_signal"`
	Started          *string    `json:"started"`
	Completed        *string    `json:"completed"`
	DependsOn        []string   `json:"depends_on"`
	CheckpointsDone  int        `json:"checkpoints_done"`
	CheckpointsTotal int        `json:"checkpoints_total"`
	ProgressPct      float64    `json:"progress_pct"`
	CurrentTask      *string    `json:"current_task"`
	Notes            []string   `json:"notes"`
	Blockers         []string   `json:"blockers"`
	Artifacts        []string   `json:"artifacts"`
	CompletedTasks   []string   `json:"completed_tasks"`
	CoverageLines    *string    `json:"coverage_lines"`
	CoverageBranches *string    `json:"coverage_branches"`
}

// NewRoleProgress 创建角色进度，状态默认 PENDING
func NewRoleProgress(role string) *RoleProgress {
	return &RoleProgress{Role: role, Status: RoleStatusPending}
}

// ComputeProgress 从检查点计算进度百分比
//
// 不变量：status == COMPLETED 时 progress_pct 恒为 100，
// 无论检查点计数为何（包括 checkpoints_total == 0）。
func (r *RoleProgress) ComputeProgress() {
	if r.Status == RoleStatusCompleted {
		r.ProgressPct = 100.0
	} else if r.CheckpointsTotal > 0 {
		r.ProgressPct = round1(float64(r.CheckpointsDone) / float64(r.CheckpointsTotal) * 100)
	}
}

// Clone 深拷贝
func (r *RoleProgress) Clone() *RoleProgress {
	c := *r
	c.CompletionSignal = clonePtr(r.CompletionSignal)
	c.Started = clonePtr(r.Started)
	c.Completed = clonePtr(r.Completed)
	c.CurrentTask = clonePtr(r.CurrentTask)
	c.CoverageLines = clonePtr(r.CoverageLines)
	c.CoverageBranches = clonePtr(r.CoverageBranches)
	c.DependsOn = cloneSlice(r.DependsOn)
	c.Notes = cloneSlice(r.Notes)
	c.Blockers = cloneSlice(r.Blockers)
	c.Artifacts = cloneSlice(r.Artifacts)
	c.CompletedTasks = cloneSlice(r.CompletedTasks)
	return &c
}

// ============================================================================
// PhaseProgress / Decision
// ============================================================================

// PhaseProgress 阶段进度
type PhaseProgress struct {
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	TasksDone   int     `json:"tasks_done"`
	TasksTotal  int     `json:"tasks_total"`
	ProgressPct float64 `json:"progress_pct"`
}

// ComputeProgress 从任务计数计算进度百分比
func (p *PhaseProgress) ComputeProgress() {
	if p.TasksTotal > 0 {
		p.ProgressPct = round1(float64(p.TasksDone) / float64(p.TasksTotal) * 100)
	}
}

// Decision 决策记录
type Decision struct {
	Date      string `json:"date"`
	Decision  string `json:"decision"`
	Rationale string `json:"rationale"`
}

// ============================================================================
// Feature - 特性聚合根
// ============================================================================

// Feature 一个被跟踪的特性
type Feature struct {
	ID                 string                   `json:"id"`
	Name               string                   `json:"name"`
	Workflow           string                   `json:"workflow"`
	Created            *string                  `json:"created"`
	LastUpdated        *string                  `json:"last_updated"`
	OverallStatus      string                   `json:"overall_status"`
	OverallProgressPct float64                  `json:"overall_progress_pct"`
	Roles              map[string]*RoleProgress `json:"roles"`
	Phases             []PhaseProgress          `json:"phases"`
	Blockers           []string                 `json:"blockers"`
	Decisions          []Decision               `json:"decisions"`
	Artifacts          []string                 `json:"artifacts"`
}

// NewFeature 创建特性，名称默认由 id 推导（连字符转空格并首字母大写）
func NewFeature(id string) *Feature {
	return &Feature{
		ID:            id,
		Name:          titleFromID(id),
		Workflow:      "default",
		OverallStatus: string(RoleStatusPending),
		Roles:         make(map[string]*RoleProgress),
	}
}

// ComputeOverallProgress 计算特性级汇总
//
// 进度为各角色 progress_pct 的简单平均（保留一位小数）。
// 状态按以下严格优先级求值：
//  1. 所有角色 COMPLETED/APPROVED -> COMPLETED
//  2. 任一角色 BLOCKED            -> BLOCKED（覆盖一切，包括已完成角色）
//  3. 任一角色处于活跃状态        -> IN_PROGRESS
//  4. 平均进度 > 0                -> IN_PROGRESS
//  5. 其余                        -> PENDING
//
// roles 为空时不做任何修改（保留先前的值，避免除零）。
func (f *Feature) ComputeOverallProgress() {
	if len(f.Roles) == 0 {
		return
	}

	var total float64
	for _, r := range f.Roles {
		total += r.ProgressPct
	}
	f.OverallProgressPct = round1(total / float64(len(f.Roles)))

	allDone := true
	anyBlocked := false
	anyActive := false
	for _, r := range f.Roles {
		switch r.Status {
		case RoleStatusCompleted, RoleStatusApproved:
			// 完成态
		default:
			allDone = false
		}
		if r.Status == RoleStatusBlocked {
			anyBlocked = true
		}
		if r.Status == RoleStatusInProgress || r.Status == RoleStatusReadyForReview || r.Status == RoleStatusWaitingAPI {
			anyActive = true
		}
	}

	switch {
	case allDone:
		f.OverallStatus = string(RoleStatusCompleted)
	case anyBlocked:
		f.OverallStatus = string(RoleStatusBlocked)
	case anyActive:
		f.OverallStatus = string(RoleStatusInProgress)
	case f.OverallProgressPct > 0:
		f.OverallStatus = string(RoleStatusInProgress)
	default:
		f.OverallStatus = string(RoleStatusPending)
	}
}

// Clone 深拷贝（存储层向调用方复制值对象时使用）
func (f *Feature) Clone() *Feature {
	c := *f
	c.Created = clonePtr(f.Created)
	c.LastUpdated = clonePtr(f.LastUpdated)
	c.Phases = cloneSlice(f.Phases)
	c.Blockers = cloneSlice(f.Blockers)
	c.Decisions = cloneSlice(f.Decisions)
	c.Artifacts = cloneSlice(f.Artifacts)
	c.Roles = make(map[string]*RoleProgress, len(f.Roles))
	for k, r := range f.Roles {
		c.Roles[k] = r.Clone()
	}
	return &c
}

// ============================================================================
// 工具函数
// ============================================================================

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func titleFromID(id string) string {
	words := strings.Split(strings.ReplaceAll(id, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
