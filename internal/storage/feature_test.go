package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeature(t *testing.T, dir, id, stateDoc string, extraDocs map[string]string) {
	t.Helper()
	featureDir := filepath.Join(dir, id)
	require.NoError(t, os.MkdirAll(featureDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(featureDir, stateDocName), []byte(stateDoc), 0o644))
	for name, content := range extraDocs {
		require.NoError(t, os.WriteFile(filepath.Join(featureDir, name), []byte(content), 0o644))
	}
}

const minimalStateDoc = "## Backend\n\n**Status**: `IN_PROGRESS`\n\n- [x] a\n- [ ] b\n"

// TestFeatureStore_List 只有带状态文档的子目录才算特性
func TestFeatureStore_List(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "user-auth", minimalStateDoc, nil)
	writeFeature(t, dir, "billing", minimalStateDoc, nil)
	// 无状态文档的目录被忽略
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scratch"), 0o755))
	// 普通文件被忽略
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

	store := NewFeatureStore(dir)
	features := store.List()

	require.Len(t, features, 2)
	assert.Equal(t, "billing", features[0].ID) // 按 id 排序
	assert.Equal(t, "user-auth", features[1].ID)
}

// TestFeatureStore_ListMissingDir 目录不存在返回空列表
func TestFeatureStore_ListMissingDir(t *testing.T) {
	store := NewFeatureStore(filepath.Join(t.TempDir(), "nope"))
	assert.Empty(t, store.List())
}

// TestFeatureStore_GetAndInvalidate 缓存命中与失效
func TestFeatureStore_GetAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "user-auth", minimalStateDoc, nil)

	store := NewFeatureStore(dir)
	f := store.Get("user-auth")
	require.NotNil(t, f)
	assert.Equal(t, 50.0, f.Roles["backend"].ProgressPct)

	// 磁盘更新后缓存仍返回旧值
	updated := "## Backend\n\n**Status**: `COMPLETED`\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user-auth", stateDocName), []byte(updated), 0o644))
	f = store.Get("user-auth")
	require.NotNil(t, f)
	assert.Equal(t, 50.0, f.Roles["backend"].ProgressPct)

	// 失效后重新加载
	store.Invalidate("user-auth")
	f = store.Get("user-auth")
	require.NotNil(t, f)
	assert.Equal(t, 100.0, f.Roles["backend"].ProgressPct)
}

// TestFeatureStore_GetMissing 不存在的特性返回 nil
func TestFeatureStore_GetMissing(t *testing.T) {
	store := NewFeatureStore(t.TempDir())
	assert.Nil(t, store.Get("ghost"))
	// 路径遍历被拒绝
	assert.Nil(t, store.Get("../etc"))
	assert.Nil(t, store.Get(".."))
}

// TestFeatureStore_CloneIsolation 返回值是深拷贝
func TestFeatureStore_CloneIsolation(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "f1", minimalStateDoc, nil)

	store := NewFeatureStore(dir)
	a := store.Get("f1")
	require.NotNil(t, a)
	a.Roles["backend"].ProgressPct = 99.0
	a.Blockers = append(a.Blockers, "mutated")

	b := store.Get("f1")
	require.NotNil(t, b)
	assert.Equal(t, 50.0, b.Roles["backend"].ProgressPct)
	assert.Empty(t, b.Blockers)
}

// TestFeatureStore_ArtifactsFromDirectory 目录文件覆盖文档引用
func TestFeatureStore_ArtifactsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "f1", minimalStateDoc, map[string]string{
		"10_architecture.md": "# Arch",
		"20_api_contracts.md": "# API",
	})

	store := NewFeatureStore(dir)
	f := store.Get("f1")
	require.NotNil(t, f)
	assert.Equal(t, []string{"10_architecture.md", "20_api_contracts.md", stateDocName}, f.Artifacts)

	assert.Equal(t, f.Artifacts, store.Artifacts("f1"))
}

// TestFeatureStore_ArtifactContent 制品读取与路径约束
func TestFeatureStore_ArtifactContent(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "f1", minimalStateDoc, map[string]string{
		"10_architecture.md": "# Arch doc",
	})

	store := NewFeatureStore(dir)

	content, ok := store.ArtifactContent("f1", "10_architecture.md")
	require.True(t, ok)
	assert.Equal(t, "# Arch doc", content)

	_, ok = store.ArtifactContent("f1", "missing.md")
	assert.False(t, ok)
	_, ok = store.ArtifactContent("f1", "../../../etc/passwd")
	assert.False(t, ok)
	_, ok = store.ArtifactContent("f1", "notes.txt")
	assert.False(t, ok)
}

// TestFeatureStore_Tasks 任务文档聚合
func TestFeatureStore_Tasks(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "f1", minimalStateDoc, map[string]string{
		"30_tasks_backend.md":  "## BE-001: schema\n\n**Status**: COMPLETED\n",
		"31_tasks_frontend.md": "## FE-001: login form\n\n**Status**: PENDING\n",
	})

	store := NewFeatureStore(dir)
	tasks := store.Tasks("f1")

	require.Len(t, tasks, 2)
	assert.Equal(t, "BE-001", tasks[0].ID)
	assert.True(t, tasks[0].Done)
	assert.Equal(t, "FE-001", tasks[1].ID)
	assert.Equal(t, "f1", tasks[1].FeatureID)

	assert.Empty(t, store.Tasks("ghost"))
}
