// Package model 定义核心数据模型
//
// task.go 包含任务文档解析出的任务条目。
package model

// Task 任务文档中的一个任务条目
type Task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Done      bool     `json:"done"`
	Phase     *string  `json:"phase"`
	Priority  *string  `json:"priority"`
	DependsOn []string `json:"depends_on"`
	FeatureID string   `json:"feature_id"`
}
