// Package storage 文件系统之上的实体存储
//
// snapshot.go 快照存储。快照目录下每个子目录带一份
// checkpoint_meta.json 描述中断点，递归扫描后按时间倒序返回。
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"workflow-dashboard/internal/model"
)

const snapshotMetaName = "checkpoint_meta.json"

// SnapshotStore 快照存储
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore 创建快照存储
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

// List 列出全部快照，按时间倒序
//
// 损坏的元数据文件静默跳过。
func (s *SnapshotStore) List() []model.Snapshot {
	snapshots := make([]model.Snapshot, 0)
	filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != snapshotMetaName {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var snap model.Snapshot
		if err := json.Unmarshal(content, &snap); err != nil {
			return nil
		}
		snap.Directory = filepath.Dir(path)
		snapshots = append(snapshots, snap)
		return nil
	})
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Timestamp > snapshots[j].Timestamp })
	return snapshots
}
