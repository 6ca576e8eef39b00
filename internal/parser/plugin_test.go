package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParsePluginJSON 插件清单解析与坏 JSON 容错
func TestParsePluginJSON(t *testing.T) {
	info := ParsePluginJSON(`{"name":"workflows","version":"2.1.0"}`)
	assert.Equal(t, "workflows", info["name"])
	assert.Equal(t, "2.1.0", info["version"])

	assert.Empty(t, ParsePluginJSON("{broken"))
	assert.Empty(t, ParsePluginJSON(""))
}

// TestParseAgent_Frontmatter frontmatter 的 description 优先
func TestParseAgent_Frontmatter(t *testing.T) {
	content := `---
description: "Implements backend services"
model: inherit
---

# Backend Engineer

Long prose body here.
`
	a := ParseAgent(content, "backend-engineer", "engineering", "agents/engineering/backend-engineer.md")

	assert.Equal(t, "backend-engineer", a.Name)
	assert.Equal(t, "engineering", a.Category)
	assert.Equal(t, "Implements backend services", a.Description)
	assert.Equal(t, "agents/engineering/backend-engineer.md", a.FilePath)
}

// TestParseAgent_BodyFallback 无 frontmatter 时回退到 H1 后首段
func TestParseAgent_BodyFallback(t *testing.T) {
	content := `# Backend Engineer

Builds and maintains the API layer.

More detail below.
`
	a := ParseAgent(content, "backend-engineer", "engineering", "x.md")
	assert.Equal(t, "Builds and maintains the API layer.", a.Description)
}

// TestParseAgent_BrokenFrontmatter YAML 损坏时仍回退正文
func TestParseAgent_BrokenFrontmatter(t *testing.T) {
	content := `---
description: [unclosed
---

# Agent

Fallback paragraph.
`
	a := ParseAgent(content, "agent", "misc", "x.md")
	assert.Equal(t, "Fallback paragraph.", a.Description)
}

// TestParseSkill 技能文档解析
func TestParseSkill(t *testing.T) {
	content := `---
description: Reviews database migrations
---
`
	s := ParseSkill(content, "migration-review", "skills/migration-review/SKILL.md")
	assert.Equal(t, "migration-review", s.Name)
	assert.Equal(t, "Reviews database migrations", s.Description)
}

// TestParseCommand_ArgumentHint 命令的 argument_hint 可选
func TestParseCommand_ArgumentHint(t *testing.T) {
	content := `---
description: Start a feature workflow
argument_hint: "<feature-name>"
---
`
	c := ParseCommand(content, "feature-start", "commands/workflows/feature-start.md")
	assert.Equal(t, "Start a feature workflow", c.Description)
	require.NotNil(t, c.ArgumentHint)
	assert.Equal(t, "<feature-name>", *c.ArgumentHint)

	c2 := ParseCommand("# cmd\n\nbody\n", "cmd", "x.md")
	assert.Nil(t, c2.ArgumentHint)
	assert.Equal(t, "body", c2.Description)
}

// TestParseProjectConfig 项目配置解析与损坏容错
func TestParseProjectConfig(t *testing.T) {
	content := `project:
  name: shop-api
  type: webapp
  description: storefront backend
backend:
  framework: echo
  language: go
  architecture: hexagonal
workflow:
  default: full-stack
git:
  main_branch: main
  commit_style: conventional
`
	pc := ParseProjectConfig(content)
	assert.Equal(t, "shop-api", pc.Name)
	assert.Equal(t, "webapp", pc.ProjectType)
	assert.Equal(t, "storefront backend", pc.Description)
	assert.Equal(t, "echo", pc.BackendFramework)
	assert.Equal(t, "go", pc.BackendLanguage)
	assert.Equal(t, "hexagonal", pc.BackendArchitecture)
	assert.Equal(t, "full-stack", pc.DefaultWorkflow)
	assert.Equal(t, "main", pc.GitMainBranch)
	assert.Equal(t, "conventional", pc.CommitStyle)

	assert.Equal(t, ParseProjectConfig("{{{"), ParseProjectConfig(""))
}
