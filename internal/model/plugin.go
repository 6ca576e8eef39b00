// Package model 定义核心数据模型
//
// plugin.go 包含插件元数据、项目配置与快照模型。
// 这些实体来自外部协作者产出的文件，本核心只读。
package model

// Agent 插件定义的智能体
type Agent struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	FilePath    string `json:"file_path"`
}

// Skill 插件定义的技能
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FilePath    string `json:"file_path"`
}

// Command 插件定义的命令
type Command struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	ArgumentHint *string `json:"argument_hint"`
	FilePath     string  `json:"file_path"`
}

// Snapshot 外部检查点机制产出的快照元数据
type Snapshot struct {
	Timestamp  string `json:"timestamp"`
	SessionID  string `json:"session_id"`
	Feature    string `json:"feature"`
	StopReason string `json:"stop_reason"`
	Directory  string `json:"directory"`
}

// ProjectConfig 项目配置（config.yaml）
//
// 解析失败时使用全零值，不报错。
type ProjectConfig struct {
	Name                string `json:"name"`
	ProjectType         string `json:"project_type"`
	Description         string `json:"description"`
	BackendFramework    string `json:"backend_framework"`
	BackendLanguage     string `json:"backend_language"`
	BackendArchitecture string `json:"backend_architecture"`
	DefaultWorkflow     string `json:"default_workflow"`
	GitMainBranch       string `json:"git_main_branch"`
	CommitStyle         string `json:"commit_style"`
}
