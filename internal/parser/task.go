// Package parser 半结构化文档解析
//
// task.go 解析任务文档。两种策略按序尝试：
//   - 标题式：`## BE-001: Title` 区块 + Status/Priority/Depends on 字段行
//   - 复选框式：`- [x] BE-001: Title`（仅在标题式一无所获时启用）
//
// 两种策略的结果不混用，标题式穷尽后才回退。
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"workflow-dashboard/internal/model"
)

var (
	reTaskHeading = regexp.MustCompile(`(?m)^#{2,3}\s+(?:Task\s+)?([A-Z]{2,3}-?\d+(?:\.\d+)?):?\s+(.+)$`)
	reNextHeading = regexp.MustCompile(`(?m)^#{2,3}\s+`)

	reTaskStatus   = regexp.MustCompile(`\*\*Status\*\*:\s*(\w+)`)
	reTaskPriority = regexp.MustCompile(`\*\*Priority\*\*:\s*(\w+)`)
	reTaskDepends  = regexp.MustCompile(`\*\*Depends on\*\*:\s*(.+)`)

	reCheckboxTask   = regexp.MustCompile(`(?i)- \[([ x])\]\s*(.+)`)
	reCheckboxTaskID = regexp.MustCompile(`^([A-Z]{2,3}-\d+):?\s*(.*)`)
)

// ParseTasks 解析一份任务文档
func ParseTasks(content, featureID string) []model.Task {
	tasks := parseHeadingTasks(content, featureID)
	if len(tasks) > 0 {
		return tasks
	}
	return parseCheckboxTasks(content, featureID)
}

func parseHeadingTasks(content, featureID string) []model.Task {
	var tasks []model.Task
	for _, m := range reTaskHeading.FindAllStringSubmatchIndex(content, -1) {
		taskID := strings.TrimSpace(content[m[2]:m[3]])
		title := strings.TrimSpace(content[m[4]:m[5]])

		// 字段行扫描到下一个标题或文档结尾
		section := content[m[1]:]
		if next := reNextHeading.FindStringIndex(section); next != nil {
			section = section[:next[0]]
		}

		task := model.Task{ID: taskID, Title: title, FeatureID: featureID}

		if sm := reTaskStatus.FindStringSubmatch(section); sm != nil {
			task.Done = strings.ToUpper(sm[1]) == "COMPLETED"
		}
		if pm := reTaskPriority.FindStringSubmatch(section); pm != nil {
			v := pm[1]
			task.Priority = &v
		}
		if dm := reTaskDepends.FindStringSubmatch(section); dm != nil {
			v := strings.TrimSpace(dm[1])
			if strings.ToLower(v) != "none" {
				for _, d := range strings.Split(v, ",") {
					task.DependsOn = append(task.DependsOn, strings.TrimSpace(d))
				}
			}
		}

		tasks = append(tasks, task)
	}
	return tasks
}

func parseCheckboxTasks(content, featureID string) []model.Task {
	var tasks []model.Task
	for _, m := range reCheckboxTask.FindAllStringSubmatch(content, -1) {
		done := strings.EqualFold(m[1], "x")
		text := strings.TrimSpace(m[2])

		task := model.Task{Done: done, FeatureID: featureID}
		if idm := reCheckboxTaskID.FindStringSubmatch(text); idm != nil {
			task.ID = idm[1]
			task.Title = strings.TrimSpace(idm[2])
		} else {
			// 无 id 前缀时合成顺序编号
			task.ID = fmt.Sprintf("T-%03d", len(tasks)+1)
			task.Title = text
		}
		tasks = append(tasks, task)
	}
	return tasks
}
