// Package parser 半结构化文档解析
//
// 本包把松散约定的文本制品转换为带类型的实体，所有解析函数都是纯函数：
//   - state.go: 状态文档（50_state.md，兼容表格式 A 与粗体式 B 两种历史格式）
//   - task.go: 任务文档（30_tasks*.md）
//   - session.go: 会话日志（JSONL）
//   - gitlog.go: git 文本输出
//   - plugin.go: 插件元数据（plugin.json 与 frontmatter）
//   - projectconfig.go: 项目配置（config.yaml）
//
// 容错原则：任何字段缺失或格式异常都退化为默认值，解析永不报错。
// 一份完全不匹配的文档也会产出一个基本为空但合法的实体。
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"workflow-dashboard/internal/model"
)

// roleNames 章节标题同义词到角色键的映射
var roleNames = map[string]string{
	"planner":           "planner",
	"planner / architect": "planner",
	"backend":           "backend",
	"backend engineer":  "backend",
	"frontend":          "frontend",
	"frontend engineer": "frontend",
	"qa":                "qa",
	"qa / reviewer":     "qa",
}

var knownRoleKeys = map[string]bool{"planner": true, "backend": true, "frontend": true, "qa": true}

// ============================================================================
// 预编译正则
// ============================================================================

var (
	reOverviewFeature  = regexp.MustCompile(`\*\*Feature\*\*:\s*(.+)`)
	reOverviewWorkflow = regexp.MustCompile(`\*\*Workflow\*\*:\s*(.+)`)
	reOverviewCreated  = regexp.MustCompile(`\*\*Created\*\*:\s*(.+)`)
	reOverviewUpdated  = regexp.MustCompile(`\*\*Last Updated\*\*:\s*(.+)`)
	reOverviewStatus   = regexp.MustCompile(`(?m)^(?:#[^#].*\n+)?\*\*Status\*\*:\s*(.+)`)

	reSectionHeading = regexp.MustCompile(`(?m)^##\s+(.+?)\s*$`)

	reCompletionSignal = regexp.MustCompile("\\*\\*Completion Signal\\*\\*.*?`(true|false)`")
	reStarted          = regexp.MustCompile(`\*\*Started\*\*.*?\|\s*(.+?)\s*\|`)
	reCompleted        = regexp.MustCompile(`\*\*Completed\*\*.*?\|\s*(.+?)\s*\|`)
	reLastUpdatedB     = regexp.MustCompile(`\*\*Last Updated\*\*:\s*(.+)`)
	reDependsOn        = regexp.MustCompile(`\*\*Depends On\*\*.*?\|\s*(.+?)\s*\|`)
	reCurrentTask      = regexp.MustCompile(`\*\*Current Task\*\*:\s*(.+)`)
	reCoverageLines    = regexp.MustCompile(`\*\*Lines\*\*:\s*(.+)`)
	reCoverageBranches = regexp.MustCompile(`\*\*Branches\*\*:\s*(.+)`)

	reCheckboxDone   = regexp.MustCompile(`(?i)- \[x\]`)
	reCheckboxOpen   = regexp.MustCompile(`- \[ \]`)
	reCompletedTasks = regexp.MustCompile(`(?i)- \[x\]\s*((?:BE|FE|QA)-\d+):`)

	reNotesList = regexp.MustCompile(`\*\*Notes\*\*:\s*\n((?:- .+\n)*)`)
	// RE2 不支持前瞻，终止符作为附加分组捕获
	reNotesSection    = regexp.MustCompile(`(?s)### Notes\n(.+?)(\n###|\n---|\z)`)
	reBlockersSection = regexp.MustCompile(`(?s)### Blockers\n(.+?)(\n###|\n---|\z)`)
	reArtifactsList   = regexp.MustCompile(`(?:### Artifacts Created|### Deliverables)\n((?:- .+\n)*)`)
	reArtifactMarker  = regexp.MustCompile(`- \[.\]\s*`)

	rePhaseSection  = regexp.MustCompile(`(?s)(?:### Phase Progress|Phase Progress)(.*?)(\n---|\n##[^#]|\z)`)
	reTableRow4     = regexp.MustCompile(`\|\s*(.+?)\s*\|\s*(.+?)\s*\|\s*(.+?)\s*\|\s*(.+?)\s*\|`)
	rePercent       = regexp.MustCompile(`(\d+)%`)
	reDecisionBlock = regexp.MustCompile(`(?s)## Decisions Made(.*?)(\n---|\n##[^#]|\z)`)
	reDecisionRow   = regexp.MustCompile(`\|\s*(\d{4}-\d{2}-\d{2})\s*\|\s*(.+?)\s*\|\s*(.+?)\s*\|`)

	reGlobalBlockers = regexp.MustCompile(`## Blockers\n+\*\*Current Blockers\*\*:\s*(.+)`)
	reASCIIBar       = regexp.MustCompile(`(\w+):\s*\[.+?\]\s*(\d+)%`)
)

// artifactDocNames 状态文档中可能被引用的标准制品文件名
var artifactDocNames = []string{
	"00_requirements_analysis.md",
	"10_architecture.md",
	"15_data_model.md",
	"20_api_contracts.md",
	"30_tasks_backend.md",
	"31_tasks_frontend.md",
	"32_tasks_qa.md",
	"35_dependencies.md",
}

// asciiBarLabels 进度条标签到角色键的映射
//
// 标签不在映射内的读数会被静默丢弃（与历史行为一致，
// 已知的潜在数据丢失点）。
var asciiBarLabels = map[string]string{
	"planning": "planner",
	"planner":  "planner",
	"backend":  "backend",
	"frontend": "frontend",
	"qa":       "qa",
}

// ============================================================================
// 状态字段提取策略链
// ============================================================================

// statusStrategy 一种命名的状态字段提取格式
//
// 按顺序尝试，第一个命中的策略获胜。新格式追加到链尾即可，
// 无需修改既有策略。
type statusStrategy struct {
	name string
	re   *regexp.Regexp
}

var roleStatusStrategies = []statusStrategy{
	// 格式 A：表格行 | **Status** | `IN_PROGRESS` |
	{name: "table-row", re: regexp.MustCompile("\\|\\s*\\*\\*Status\\*\\*\\s*\\|\\s*`?([A-Z_]+)`?\\s*\\|")},
	// 格式 B：粗体字段 **Status**: `IN_PROGRESS`
	{name: "bold-field", re: regexp.MustCompile("\\*\\*Status\\*\\*:\\s*`?([A-Z_]+)`?")},
}

func extractRoleStatus(text string) (model.RoleStatus, bool) {
	for _, s := range roleStatusStrategies {
		if m := s.re.FindStringSubmatch(text); m != nil {
			return model.RoleStatusFromString(m[1]), true
		}
	}
	return model.RoleStatusPending, false
}

// ============================================================================
// 状态文档解析
// ============================================================================

// ParseState 解析一份状态文档
//
// 输入为文档全文与所属特性 id，输出填充 roles/phases/decisions/blockers
// 的 Feature。目录制品列表由存储层在加载时另行覆盖。
func ParseState(content, featureID string) *model.Feature {
	f := model.NewFeature(featureID)

	parseOverview(content, f)

	for _, sec := range splitRoleSections(content) {
		key := strings.ToLower(strings.TrimSpace(sec.heading))
		if mapped, ok := roleNames[key]; ok {
			key = mapped
		}
		if !knownRoleKeys[key] {
			continue
		}
		f.Roles[key] = parseRoleSection(sec.body, key)
	}

	f.Phases = parsePhases(content)
	f.Decisions = parseDecisions(content)
	f.Artifacts = detectArtifacts(content)
	f.Blockers = parseGlobalBlockers(content)

	// 进度条覆盖：作者把 ASCII 进度条当作权威汇总，
	// 覆盖由检查点推导出的百分比
	applyASCIIProgress(content, f)

	f.ComputeOverallProgress()
	return f
}

func parseOverview(content string, f *model.Feature) {
	if m := reOverviewFeature.FindStringSubmatch(content); m != nil {
		f.Name = strings.TrimSpace(m[1])
	}
	if m := reOverviewWorkflow.FindStringSubmatch(content); m != nil {
		wf := strings.TrimSpace(m[1])
		wf = strings.TrimSpace(strings.SplitN(wf, "(", 2)[0])
		f.Workflow = wf
	}
	if m := reOverviewCreated.FindStringSubmatch(content); m != nil {
		v := strings.TrimSpace(m[1])
		f.Created = &v
	}
	if m := reOverviewUpdated.FindStringSubmatch(content); m != nil {
		v := strings.TrimSpace(m[1])
		f.LastUpdated = &v
	}
	if m := reOverviewStatus.FindStringSubmatch(content); m != nil {
		f.OverallStatus = strings.TrimSpace(m[1])
	}
}

type roleSection struct {
	heading string
	body    string
}

// splitRoleSections 按二级标题切分文档
//
// 只保留标题（小写化后）包含四个角色关键词之一的章节，
// 其余标题全部丢弃。
func splitRoleSections(content string) []roleSection {
	matches := reSectionHeading.FindAllStringSubmatchIndex(content, -1)
	var sections []roleSection
	for i, m := range matches {
		heading := content[m[2]:m[3]]
		start := m[1]
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		normalized := strings.ToLower(strings.TrimSpace(heading))
		if strings.Contains(normalized, "planner") || strings.Contains(normalized, "backend") ||
			strings.Contains(normalized, "frontend") || strings.Contains(normalized, "qa") {
			sections = append(sections, roleSection{heading: heading, body: content[start:end]})
		}
	}
	return sections
}

func parseRoleSection(text, roleKey string) *model.RoleProgress {
	rp := model.NewRoleProgress(roleKey)

	if status, ok := extractRoleStatus(text); ok {
		rp.Status = status
	}

	if m := reCompletionSignal.FindStringSubmatch(text); m != nil {
		v := m[1] == "true"
		rp.CompletionSignal = &v
	}

	if m := reStarted.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "-" {
			rp.Started = &v
		}
	}
	if m := reCompleted.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "-" {
			rp.Completed = &v
		}
	}
	// 格式 B 用 Last Updated 记录活动时间
	if m := reLastUpdatedB.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		rp.Started = &v
	}

	if m := reDependsOn.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "-" {
			for _, d := range strings.Split(v, ",") {
				rp.DependsOn = append(rp.DependsOn, strings.TrimSpace(d))
			}
		}
	}

	if m := reCurrentTask.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		lower := strings.ToLower(v)
		if lower != "none" && !strings.Contains(lower, "pending") {
			rp.CurrentTask = &v
		}
	}

	rp.CheckpointsDone = len(reCheckboxDone.FindAllString(text, -1))
	rp.CheckpointsTotal = rp.CheckpointsDone + len(reCheckboxOpen.FindAllString(text, -1))

	for _, m := range reCompletedTasks.FindAllStringSubmatch(text, -1) {
		rp.CompletedTasks = append(rp.CompletedTasks, m[1])
	}

	rp.Notes = parseNotes(text)
	rp.Blockers = parseSectionBlockers(text)

	if m := reCoverageLines.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		rp.CoverageLines = &v
	}
	if m := reCoverageBranches.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		rp.CoverageBranches = &v
	}

	rp.Artifacts = parseSectionArtifacts(text)

	rp.ComputeProgress()
	return rp
}

func parseNotes(text string) []string {
	if m := reNotesList.FindStringSubmatch(text); m != nil {
		var notes []string
		for _, line := range strings.Split(strings.TrimSpace(m[1]), "\n") {
			if line = strings.TrimSpace(strings.Trim(line, "- ")); line != "" {
				notes = append(notes, line)
			}
		}
		if len(notes) > 0 {
			return notes
		}
	}
	if m := reNotesSection.FindStringSubmatch(text); m != nil {
		noteText := strings.TrimSpace(m[1])
		if noteText != "" && !strings.Contains(noteText, "<!--") {
			return []string{noteText}
		}
	}
	return nil
}

func parseSectionBlockers(text string) []string {
	if m := reBlockersSection.FindStringSubmatch(text); m != nil {
		blockerText := strings.TrimSpace(m[1])
		if blockerText != "" && !strings.Contains(blockerText, "<!--") {
			return []string{blockerText}
		}
	}
	return nil
}

func parseSectionArtifacts(text string) []string {
	m := reArtifactsList.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var artifacts []string
	for _, line := range strings.Split(strings.TrimSpace(m[1]), "\n") {
		if strings.TrimSpace(line) == "" || strings.Contains(line, "<!--") {
			continue
		}
		item := strings.TrimSpace(reArtifactMarker.ReplaceAllString(line, ""))
		item = strings.TrimSpace(strings.TrimPrefix(item, "- "))
		if item != "" {
			artifacts = append(artifacts, item)
		}
	}
	return artifacts
}

func parsePhases(content string) []model.PhaseProgress {
	sec := rePhaseSection.FindStringSubmatch(content)
	if sec == nil {
		return nil
	}

	var phases []model.PhaseProgress
	for _, row := range reTableRow4.FindAllStringSubmatch(sec[1], -1) {
		name := strings.TrimSpace(row[1])
		if name == "Phase" || name == "---" || name == "" || strings.HasPrefix(name, "-") {
			continue
		}
		col2 := strings.TrimSpace(row[2])
		col3 := strings.TrimSpace(row[3])
		col4 := strings.TrimSpace(row[4])

		phase := model.PhaseProgress{Name: name}

		// 两种表格布局：带 Progress 列的用百分比，
		// 否则第三列是 "done/total" 计数
		if pct := rePercent.FindStringSubmatch(col4); pct != nil {
			v, _ := strconv.ParseFloat(pct[1], 64)
			phase.ProgressPct = v
			phase.Status = col3
		} else {
			phase.Status = col2
			counts := strings.ReplaceAll(col3, " ", "")
			if done, total, ok := strings.Cut(counts, "/"); ok {
				d, errD := strconv.Atoi(done)
				t, errT := strconv.Atoi(total)
				if errD == nil && errT == nil {
					phase.TasksDone = d
					phase.TasksTotal = t
					phase.ComputeProgress()
				}
			}
		}
		phases = append(phases, phase)
	}
	return phases
}

func parseDecisions(content string) []model.Decision {
	sec := reDecisionBlock.FindStringSubmatch(content)
	if sec == nil {
		return nil
	}
	var decisions []model.Decision
	for _, row := range reDecisionRow.FindAllStringSubmatch(sec[1], -1) {
		decisions = append(decisions, model.Decision{
			Date:      row[1],
			Decision:  strings.TrimSpace(row[2]),
			Rationale: strings.TrimSpace(row[3]),
		})
	}
	return decisions
}

func detectArtifacts(content string) []string {
	var artifacts []string
	for _, doc := range artifactDocNames {
		if strings.Contains(content, doc) {
			artifacts = append(artifacts, doc)
		}
	}
	return artifacts
}

func parseGlobalBlockers(content string) []string {
	m := reGlobalBlockers.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	if strings.ToLower(v) == "none" {
		return nil
	}
	return []string{v}
}

// applyASCIIProgress 全文扫描 ASCII 进度条并覆盖角色进度
//
// 形如 "Backend:      [########  ]  80%" 的行。标签必须映射到
// 已存在于 roles 中的角色键，否则该读数被丢弃。
func applyASCIIProgress(content string, f *model.Feature) {
	for _, m := range reASCIIBar.FindAllStringSubmatch(content, -1) {
		label := strings.ToLower(strings.TrimSpace(m[1]))
		roleKey, ok := asciiBarLabels[label]
		if !ok {
			continue
		}
		rp, present := f.Roles[roleKey]
		if !present {
			continue
		}
		pct, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		rp.ProgressPct = pct
	}
}
