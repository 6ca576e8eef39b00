// Package parser 半结构化文档解析
//
// plugin.go 解析插件元数据：
//   - plugin.json：插件清单
//   - agent/skill/command markdown：YAML frontmatter 的 description /
//     argument_hint，缺失时回退到 H1 标题后的第一段正文
package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"workflow-dashboard/internal/model"
)

var reFirstParagraph = regexp.MustCompile(`(?m)^#\s+.+\n+(.+?)(\n\n|\n#|\n?\z)`)

// ParsePluginJSON 解析插件清单，坏 JSON 返回空映射
func ParsePluginJSON(content string) map[string]any {
	var info map[string]any
	if err := json.Unmarshal([]byte(content), &info); err != nil {
		return map[string]any{}
	}
	return info
}

// frontmatter markdown 头部 YAML 块中用到的字段
type frontmatter struct {
	Description  string `yaml:"description"`
	ArgumentHint string `yaml:"argument_hint"`
}

// parseFrontmatter 提取文档头部 `---` 包围的 YAML 块
//
// 没有 frontmatter 或 YAML 损坏时返回零值，不报错。
func parseFrontmatter(content string) frontmatter {
	var fm frontmatter
	if !strings.HasPrefix(content, "---") {
		return fm
	}
	end := strings.Index(content[3:], "---")
	if end < 0 {
		return fm
	}
	// 解析失败时保留零值，由正文回退兜底
	yaml.Unmarshal([]byte(content[3:3+end]), &fm)
	fm.Description = strings.Trim(strings.TrimSpace(fm.Description), `"'`)
	fm.ArgumentHint = strings.Trim(strings.TrimSpace(fm.ArgumentHint), `"'`)
	return fm
}

func firstParagraph(content string) string {
	if m := reFirstParagraph.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ParseAgent 解析一份智能体定义文档
//
// name 取文件名（去扩展名），category 取父目录名。
func ParseAgent(content, name, category, path string) model.Agent {
	desc := parseFrontmatter(content).Description
	if desc == "" {
		desc = firstParagraph(content)
	}
	return model.Agent{Name: name, Category: category, Description: desc, FilePath: path}
}

// ParseSkill 解析一份技能定义文档
func ParseSkill(content, name, path string) model.Skill {
	desc := parseFrontmatter(content).Description
	if desc == "" {
		desc = firstParagraph(content)
	}
	return model.Skill{Name: name, Description: desc, FilePath: path}
}

// ParseCommand 解析一份命令定义文档
func ParseCommand(content, name, path string) model.Command {
	fm := parseFrontmatter(content)
	desc := fm.Description
	if desc == "" {
		desc = firstParagraph(content)
	}
	cmd := model.Command{Name: name, Description: desc, FilePath: path}
	if fm.ArgumentHint != "" {
		v := fm.ArgumentHint
		cmd.ArgumentHint = &v
	}
	return cmd
}
