// Package parser 半结构化文档解析
//
// projectconfig.go 解析项目配置 config.yaml。
// YAML 损坏时返回全零值配置。
package parser

import (
	"gopkg.in/yaml.v3"

	"workflow-dashboard/internal/model"
)

// projectConfigYAML config.yaml 的文件结构
type projectConfigYAML struct {
	Project struct {
		Name        string `yaml:"name"`
		Type        string `yaml:"type"`
		Description string `yaml:"description"`
	} `yaml:"project"`
	Backend struct {
		Framework    string `yaml:"framework"`
		Language     string `yaml:"language"`
		Architecture string `yaml:"architecture"`
	} `yaml:"backend"`
	Workflow struct {
		Default string `yaml:"default"`
	} `yaml:"workflow"`
	Git struct {
		MainBranch  string `yaml:"main_branch"`
		CommitStyle string `yaml:"commit_style"`
	} `yaml:"git"`
}

// ParseProjectConfig 解析项目配置
func ParseProjectConfig(content string) model.ProjectConfig {
	var raw projectConfigYAML
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		return model.ProjectConfig{}
	}
	return model.ProjectConfig{
		Name:                raw.Project.Name,
		ProjectType:         raw.Project.Type,
		Description:         raw.Project.Description,
		BackendFramework:    raw.Backend.Framework,
		BackendLanguage:     raw.Backend.Language,
		BackendArchitecture: raw.Backend.Architecture,
		DefaultWorkflow:     raw.Workflow.Default,
		GitMainBranch:       raw.Git.MainBranch,
		CommitStyle:         raw.Git.CommitStyle,
	}
}
