// Package storage 文件系统之上的实体存储
//
// plugin.go 插件元数据存储。插件目录布局：
//
//	<pluginDir>/.claude-plugin/plugin.json       插件清单
//	<pluginDir>/agents/<category>/<name>.md      智能体定义
//	<pluginDir>/skills/<name>/SKILL.md           技能定义（目录式）
//	<pluginDir>/skills/<name>.md                 技能定义（单文件式）
//	<pluginDir>/commands/workflows/<name>.md     命令定义
//
// 插件目录是只读参考数据，每次请求直接扫描，不做缓存。
package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"workflow-dashboard/internal/model"
	"workflow-dashboard/internal/parser"
)

// PluginStore 插件元数据存储
type PluginStore struct {
	pluginJSONPath string
	agentsDir      string
	skillsDir      string
	commandsDir    string
}

// NewPluginStore 创建插件元数据存储
func NewPluginStore(pluginJSONPath, agentsDir, skillsDir, commandsDir string) *PluginStore {
	return &PluginStore{
		pluginJSONPath: pluginJSONPath,
		agentsDir:      agentsDir,
		skillsDir:      skillsDir,
		commandsDir:    commandsDir,
	}
}

// Info 返回插件清单内容
func (s *PluginStore) Info() map[string]any {
	content, err := os.ReadFile(s.pluginJSONPath)
	if err != nil {
		return map[string]any{}
	}
	return parser.ParsePluginJSON(string(content))
}

// Agents 列出全部智能体定义
//
// 递归扫描 agents 目录，父目录名作为分类。
func (s *PluginStore) Agents() []model.Agent {
	agents := make([]model.Agent, 0)
	filepath.WalkDir(s.agentsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		name := strings.TrimSuffix(d.Name(), ".md")
		category := filepath.Base(filepath.Dir(path))
		if category == filepath.Base(s.agentsDir) {
			category = "general"
		}
		agents = append(agents, parser.ParseAgent(string(content), name, category, path))
		return nil
	})
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents
}

// Skills 列出全部技能定义
//
// 目录式技能取目录名，单文件式取文件名（去扩展名）。
func (s *PluginStore) Skills() []model.Skill {
	skills := make([]model.Skill, 0)
	entries, err := os.ReadDir(s.skillsDir)
	if err != nil {
		return skills
	}
	for _, e := range entries {
		if e.IsDir() {
			skillPath := filepath.Join(s.skillsDir, e.Name(), "SKILL.md")
			content, err := os.ReadFile(skillPath)
			if err != nil {
				continue
			}
			skills = append(skills, parser.ParseSkill(string(content), e.Name(), skillPath))
		} else if strings.HasSuffix(e.Name(), ".md") {
			path := filepath.Join(s.skillsDir, e.Name())
			content, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ".md")
			skills = append(skills, parser.ParseSkill(string(content), name, path))
		}
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills
}

// Commands 列出全部命令定义
func (s *PluginStore) Commands() []model.Command {
	commands := make([]model.Command, 0)
	entries, err := os.ReadDir(s.commandsDir)
	if err != nil {
		return commands
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(s.commandsDir, e.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		commands = append(commands, parser.ParseCommand(string(content), name, path))
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Name < commands[j].Name })
	return commands
}
