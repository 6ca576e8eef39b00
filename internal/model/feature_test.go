// Package model 数据模型测试
package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// RoleStatus 归一化测试
// ============================================================================

// TestRoleStatusFromString 验证状态标记的容错解析
//
// 检查点：
//   - 大小写混合、反引号包裹、内部空格均可识别
//   - 无法识别的标记返回 UNKNOWN，不报错
func TestRoleStatusFromString(t *testing.T) {
	cases := []struct {
		in   string
		want RoleStatus
	}{
		{"COMPLETED", RoleStatusCompleted},
		{"completed", RoleStatusCompleted},
		{"  In_Progress  ", RoleStatusInProgress},
		{"`BLOCKED`", RoleStatusBlocked},
		{"ready for review", RoleStatusReadyForReview},
		{"Waiting API", RoleStatusWaitingAPI},
		{"`approved`", RoleStatusApproved},
		{"REJECTED", RoleStatusRejected},
		{"PENDING", RoleStatusPending},
		{"", RoleStatusUnknown},
		{"WIP", RoleStatusUnknown},
		{"done!", RoleStatusUnknown},
		{"🚀", RoleStatusUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RoleStatusFromString(tc.in), "input %q", tc.in)
	}
}

// ============================================================================
// 进度计算测试
// ============================================================================

// TestRoleProgress_ComputeProgress 检查点计数转百分比
//
// 2/3 完成 -> 66.7（保留一位小数）
func TestRoleProgress_ComputeProgress(t *testing.T) {
	rp := NewRoleProgress("backend")
	rp.Status = RoleStatusInProgress
	rp.CheckpointsDone = 2
	rp.CheckpointsTotal = 3

	rp.ComputeProgress()

	assert.Equal(t, 66.7, rp.ProgressPct)
}

// TestRoleProgress_CompletedOverride COMPLETED 状态强制 100%
//
// 即使 checkpoints_total == 0 也是 100.0。
func TestRoleProgress_CompletedOverride(t *testing.T) {
	rp := NewRoleProgress("qa")
	rp.Status = RoleStatusCompleted

	rp.ComputeProgress()

	assert.Equal(t, 100.0, rp.ProgressPct)
}

// TestRoleProgress_ZeroCheckpoints 无检查点且未完成时保持 0
func TestRoleProgress_ZeroCheckpoints(t *testing.T) {
	rp := NewRoleProgress("frontend")
	rp.Status = RoleStatusInProgress

	rp.ComputeProgress()

	assert.Equal(t, 0.0, rp.ProgressPct)
}

// TestPhaseProgress_ComputeProgress 阶段任务计数转百分比
func TestPhaseProgress_ComputeProgress(t *testing.T) {
	p := PhaseProgress{Name: "Phase 1", TasksDone: 2, TasksTotal: 4}
	p.ComputeProgress()
	assert.Equal(t, 50.0, p.ProgressPct)
}

// ============================================================================
// 特性级汇总测试
// ============================================================================

func roleWithStatus(role string, s RoleStatus) *RoleProgress {
	rp := NewRoleProgress(role)
	rp.Status = s
	rp.ComputeProgress()
	return rp
}

// TestFeature_Rollup_AllCompleted 全部完成/批准 -> COMPLETED
func TestFeature_Rollup_AllCompleted(t *testing.T) {
	f := NewFeature("demo")
	f.Roles["planner"] = roleWithStatus("planner", RoleStatusCompleted)
	f.Roles["backend"] = roleWithStatus("backend", RoleStatusCompleted)
	f.Roles["frontend"] = roleWithStatus("frontend", RoleStatusApproved)
	f.Roles["qa"] = roleWithStatus("qa", RoleStatusCompleted)

	f.ComputeOverallProgress()

	assert.Equal(t, "COMPLETED", f.OverallStatus)
	assert.Equal(t, 75.0, f.OverallProgressPct) // APPROVED 不强制 100%
}

// TestFeature_Rollup_BlockedOverridesCompleted BLOCKED 覆盖完成态
func TestFeature_Rollup_BlockedOverridesCompleted(t *testing.T) {
	f := NewFeature("demo")
	f.Roles["backend"] = roleWithStatus("backend", RoleStatusCompleted)
	f.Roles["frontend"] = roleWithStatus("frontend", RoleStatusBlocked)

	f.ComputeOverallProgress()

	assert.Equal(t, "BLOCKED", f.OverallStatus)
}

// TestFeature_Rollup_ActiveStatuses 活跃状态 -> IN_PROGRESS
func TestFeature_Rollup_ActiveStatuses(t *testing.T) {
	for _, s := range []RoleStatus{RoleStatusInProgress, RoleStatusReadyForReview, RoleStatusWaitingAPI} {
		f := NewFeature("demo")
		f.Roles["backend"] = roleWithStatus("backend", s)
		f.Roles["qa"] = roleWithStatus("qa", RoleStatusPending)

		f.ComputeOverallProgress()

		assert.Equal(t, "IN_PROGRESS", f.OverallStatus, "status %s", s)
	}
}

// TestFeature_Rollup_ProgressWithoutActiveStatus 无活跃状态但有进度 -> IN_PROGRESS
func TestFeature_Rollup_ProgressWithoutActiveStatus(t *testing.T) {
	f := NewFeature("demo")
	rp := NewRoleProgress("backend")
	rp.Status = RoleStatusUnknown
	rp.CheckpointsDone = 1
	rp.CheckpointsTotal = 2
	rp.ComputeProgress()
	f.Roles["backend"] = rp

	f.ComputeOverallProgress()

	assert.Equal(t, "IN_PROGRESS", f.OverallStatus)
	assert.Equal(t, 50.0, f.OverallProgressPct)
}

// TestFeature_Rollup_AllPending 无进度无活跃 -> PENDING
func TestFeature_Rollup_AllPending(t *testing.T) {
	f := NewFeature("demo")
	f.Roles["backend"] = roleWithStatus("backend", RoleStatusPending)
	f.Roles["qa"] = roleWithStatus("qa", RoleStatusPending)

	f.ComputeOverallProgress()

	assert.Equal(t, "PENDING", f.OverallStatus)
	assert.Equal(t, 0.0, f.OverallProgressPct)
}

// TestFeature_Rollup_NoRoles roles 为空时不修改先前的值
func TestFeature_Rollup_NoRoles(t *testing.T) {
	f := NewFeature("demo")
	f.OverallStatus = "IN_PROGRESS"
	f.OverallProgressPct = 42.0

	f.ComputeOverallProgress()

	assert.Equal(t, "IN_PROGRESS", f.OverallStatus)
	assert.Equal(t, 42.0, f.OverallProgressPct)
}

// ============================================================================
// 值对象拷贝测试
// ============================================================================

// TestFeature_Clone 深拷贝后修改副本不影响原值
func TestFeature_Clone(t *testing.T) {
	f := NewFeature("demo")
	started := "2025-01-01"
	rp := NewRoleProgress("backend")
	rp.Started = &started
	rp.Notes = []string{"first"}
	f.Roles["backend"] = rp
	f.Blockers = []string{"waiting on design"}

	c := f.Clone()
	c.Roles["backend"].Notes[0] = "changed"
	*c.Roles["backend"].Started = "2099-12-31"
	c.Blockers[0] = "changed"

	assert.Equal(t, "first", f.Roles["backend"].Notes[0])
	assert.Equal(t, "2025-01-01", *f.Roles["backend"].Started)
	assert.Equal(t, "waiting on design", f.Blockers[0])
}

// TestNewFeature_NameFromID id 转显示名
func TestNewFeature_NameFromID(t *testing.T) {
	f := NewFeature("user-auth-v2")
	assert.Equal(t, "User Auth V2", f.Name)
	assert.Equal(t, "default", f.Workflow)
	assert.Equal(t, "PENDING", f.OverallStatus)
}
