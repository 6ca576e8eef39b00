// Package storage 文件系统之上的实体存储
//
// feature.go 特性存储。特性目录布局：
//
//	<featuresDir>/<feature-id>/50_state.md    状态文档（必须存在才算特性）
//	<featuresDir>/<feature-id>/*.md           制品文档
//	<featuresDir>/<feature-id>/30_tasks*.md   任务文档
package storage

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"workflow-dashboard/internal/model"
	"workflow-dashboard/internal/parser"
)

// stateDocName 状态文档固定文件名
const stateDocName = "50_state.md"

// FeatureStore 特性存储
//
// 解析结果按特性 id 缓存，文件变动后由调用方显式失效。
// 返回值一律为深拷贝，调用方可安全修改。
type FeatureStore struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*model.Feature
}

// NewFeatureStore 创建特性存储
func NewFeatureStore(featuresDir string) *FeatureStore {
	return &FeatureStore{
		dir:   featuresDir,
		cache: make(map[string]*model.Feature),
	}
}

// List 列出全部特性，按 id 排序
//
// 只有包含状态文档的子目录才算特性。目录不存在返回空列表。
func (s *FeatureStore) List() []*model.Feature {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return []*model.Feature{}
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		statePath := filepath.Join(s.dir, e.Name(), stateDocName)
		if _, err := os.Stat(statePath); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)

	features := make([]*model.Feature, 0, len(ids))
	for _, id := range ids {
		if f := s.Get(id); f != nil {
			features = append(features, f)
		}
	}
	return features
}

// Get 按 id 取一个特性，不存在返回 nil
func (s *FeatureStore) Get(id string) *model.Feature {
	s.mu.RLock()
	cached, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return cached.Clone()
	}
	return s.load(id)
}

// load 从磁盘加载并缓存一个特性
func (s *FeatureStore) load(id string) *model.Feature {
	// 路径遍历防护：id 来自 URL，不允许跳出特性目录
	if strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return nil
	}

	statePath := filepath.Join(s.dir, id, stateDocName)
	content, err := os.ReadFile(statePath)
	if err != nil {
		return nil
	}

	f := parser.ParseState(string(content), id)

	// 目录里的真实文件覆盖文档中引用的制品名
	if docs := s.listDocs(id); len(docs) > 0 {
		f.Artifacts = docs
	}

	s.mu.Lock()
	s.cache[id] = f
	s.mu.Unlock()
	return f.Clone()
}

// listDocs 列出特性目录下的 markdown 文件（排序）
func (s *FeatureStore) listDocs(id string) []string {
	entries, err := os.ReadDir(filepath.Join(s.dir, id))
	if err != nil {
		return nil
	}
	var docs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			docs = append(docs, e.Name())
		}
	}
	sort.Strings(docs)
	return docs
}

// Invalidate 使一个特性的缓存失效
func (s *FeatureStore) Invalidate(id string) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}

// InvalidateAll 清空全部缓存
func (s *FeatureStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string]*model.Feature)
	s.mu.Unlock()
}

// Artifacts 列出一个特性的制品文件名
func (s *FeatureStore) Artifacts(id string) []string {
	if strings.ContainsAny(id, "/\\") {
		return nil
	}
	docs := s.listDocs(id)
	if docs == nil {
		return []string{}
	}
	return docs
}

// ArtifactContent 读取一个制品文档的原文
//
// 文件名限定为特性目录下的 .md 文件，防止路径遍历。
func (s *FeatureStore) ArtifactContent(id, filename string) (string, bool) {
	if strings.ContainsAny(id, "/\\") || strings.ContainsAny(filename, "/\\") {
		return "", false
	}
	if !strings.HasSuffix(filename, ".md") {
		return "", false
	}
	content, err := os.ReadFile(filepath.Join(s.dir, id, filename))
	if err != nil {
		return "", false
	}
	return string(content), true
}

// Tasks 聚合一个特性的全部任务文档
//
// 匹配 30_tasks*.md（含按角色拆分的 31_/32_ 变体），按文件名排序解析。
func (s *FeatureStore) Tasks(id string) []model.Task {
	if strings.ContainsAny(id, "/\\") {
		return []model.Task{}
	}
	pattern := filepath.Join(s.dir, id, "3*_tasks*.md")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return []model.Task{}
	}
	sort.Strings(paths)

	tasks := make([]model.Task, 0)
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			log.Printf("[storage] read task doc %s failed: %v", p, err)
			continue
		}
		tasks = append(tasks, parser.ParseTasks(string(content), id)...)
	}
	return tasks
}
