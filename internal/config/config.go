// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载环境变量（godotenv，按搜索路径列表查找）
//  2. 加载 dashboard.yaml 覆盖默认值（可选）
//  3. DASHBOARD_* 环境变量最终覆盖
//
// 所有路径默认值从 PROJECT_ROOT 推导。任何一步失败（文件缺失、
// YAML 解析失败）都回退到默认配置，不会中断启动。
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// YAMLConfig dashboard.yaml 配置文件结构
type YAMLConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Paths   PathsConfig   `yaml:"paths"`
	Watcher WatcherConfig `yaml:"watcher"`
	Git     GitConfig     `yaml:"git"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type PathsConfig struct {
	ProjectRoot    string `yaml:"project_root"`
	SessionLogsDir string `yaml:"session_logs_dir"`
	PluginDir      string `yaml:"plugin_dir"`
	CacheDB        string `yaml:"cache_db"`
}

// WatcherConfig 文件监听配置
type WatcherConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// GitConfig git 子进程调用配置
type GitConfig struct {
	Bin            string `yaml:"bin"`
	LogTimeoutSec  int    `yaml:"log_timeout_sec"`
	AuxTimeoutSec  int    `yaml:"aux_timeout_sec"`
	DiffTimeoutSec int    `yaml:"diff_timeout_sec"`
	DiffMaxLines   int    `yaml:"diff_max_lines"`
}

// Config 应用配置（最终使用的配置）
//
// 目录布局约定（与工作流插件一致）：
//
//	<project_root>/.ai/project/features/<id>/50_state.md   状态文档
//	<project_root>/.ai/project/features/<id>/30_tasks*.md  任务文档
//	<project_root>/.ai/project/config.yaml                 项目配置
//	<project_root>/.ai/snapshots/**/checkpoint_meta.json   快照元数据
//	<plugin_dir>/.claude-plugin/plugin.json                插件清单
//	<plugin_dir>/{agents,skills,commands/workflows}        插件资源
//	<session_logs_dir>/*.jsonl                             会话日志
type Config struct {
	Host string
	Port int

	ProjectRoot    string
	AIDir          string
	FeaturesDir    string
	ConfigPath     string
	SnapshotsDir   string
	SessionLogsDir string
	PluginDir      string
	PluginJSONPath string
	AgentsDir      string
	SkillsDir      string
	CommandsDir    string
	CacheDBPath    string

	Debounce time.Duration

	GitBin         string
	GitLogTimeout  time.Duration
	GitAuxTimeout  time.Duration
	GitDiffTimeout time.Duration
	DiffMaxLines   int
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
}

var yamlPaths = []string{
	"dashboard.yaml",
	"configs/dashboard.yaml",
	"../configs/dashboard.yaml",
}

// Load 加载配置
// 1. 加载 .env
// 2. 加载 dashboard.yaml（可选，解析失败时忽略并保留默认值）
// 3. DASHBOARD_* 环境变量覆盖
func Load() *Config {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	yamlCfg := &YAMLConfig{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8420},
		Watcher: WatcherConfig{DebounceMS: 500},
		Git: GitConfig{
			Bin:            "git",
			LogTimeoutSec:  10,
			AuxTimeoutSec:  5,
			DiffTimeoutSec: 15,
			DiffMaxLines:   2000,
		},
	}

	for _, p := range yamlPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, yamlCfg); err != nil {
			log.Printf("Config: ignoring malformed %s: %v", p, err)
		}
		break
	}

	root := firstNonEmpty(
		os.Getenv("DASHBOARD_PROJECT_ROOT"),
		yamlCfg.Paths.ProjectRoot,
		defaultProjectRoot(),
	)
	aiDir := filepath.Join(root, ".ai")
	pluginDir := firstNonEmpty(
		os.Getenv("DASHBOARD_PLUGIN_DIR"),
		yamlCfg.Paths.PluginDir,
		filepath.Join(root, "plugins", "multi-agent-workflow"),
	)

	cfg := &Config{
		Host: firstNonEmpty(os.Getenv("DASHBOARD_HOST"), yamlCfg.Server.Host),
		Port: envInt("DASHBOARD_PORT", yamlCfg.Server.Port),

		ProjectRoot:    root,
		AIDir:          aiDir,
		FeaturesDir:    filepath.Join(aiDir, "project", "features"),
		ConfigPath:     filepath.Join(aiDir, "project", "config.yaml"),
		SnapshotsDir:   filepath.Join(aiDir, "snapshots"),
		SessionLogsDir: firstNonEmpty(os.Getenv("DASHBOARD_SESSION_LOGS_DIR"), yamlCfg.Paths.SessionLogsDir, defaultSessionLogsDir(root)),
		PluginDir:      pluginDir,
		PluginJSONPath: filepath.Join(pluginDir, ".claude-plugin", "plugin.json"),
		AgentsDir:      filepath.Join(pluginDir, "agents"),
		SkillsDir:      filepath.Join(pluginDir, "skills"),
		CommandsDir:    filepath.Join(pluginDir, "commands", "workflows"),
		CacheDBPath:    firstNonEmpty(os.Getenv("DASHBOARD_CACHE_DB"), yamlCfg.Paths.CacheDB, filepath.Join(aiDir, "cache", "dashboard.db")),

		Debounce: time.Duration(envInt("DASHBOARD_DEBOUNCE_MS", yamlCfg.Watcher.DebounceMS)) * time.Millisecond,

		GitBin:         firstNonEmpty(os.Getenv("DASHBOARD_GIT_BIN"), yamlCfg.Git.Bin),
		GitLogTimeout:  time.Duration(yamlCfg.Git.LogTimeoutSec) * time.Second,
		GitAuxTimeout:  time.Duration(yamlCfg.Git.AuxTimeoutSec) * time.Second,
		GitDiffTimeout: time.Duration(yamlCfg.Git.DiffTimeoutSec) * time.Second,
		DiffMaxLines:   yamlCfg.Git.DiffMaxLines,
	}

	return cfg
}

// Addr 返回监听地址
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// String 返回配置摘要（用于启动日志）
func (c *Config) String() string {
	return "root=" + c.ProjectRoot +
		" sessions=" + c.SessionLogsDir +
		" addr=" + c.Addr() +
		" debounce=" + c.Debounce.String()
}

func defaultProjectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// defaultSessionLogsDir 推导会话日志目录
//
// Claude Code 将日志放在 ~/.claude/projects/<路径转义>/ 下，
// 转义规则：路径分隔符替换为 '-'。
func defaultSessionLogsDir(root string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	escaped := strings.ReplaceAll(filepath.ToSlash(root), "/", "-")
	return filepath.Join(home, ".claude", "projects", escaped)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
