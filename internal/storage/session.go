// Package storage 文件系统之上的实体存储
//
// session.go 会话存储。会话日志目录布局：
//
//	<sessionLogsDir>/<session-id>.jsonl
//
// 文件名（去扩展名）即会话 id 的回退值，记录内的 sessionId 优先。
package storage

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"workflow-dashboard/internal/model"
	"workflow-dashboard/internal/parser"
)

// maxSessionList 列表接口单次返回的会话上限
const maxSessionList = 50

// SessionStore 会话存储
type SessionStore struct {
	dir   string
	cache *SessionCache
}

// NewSessionStore 创建会话存储
//
// cache 可以是空操作缓存（OpenSessionCache 失败时的降级产物）。
func NewSessionStore(dir string, cache *SessionCache) *SessionStore {
	if cache == nil {
		cache = &SessionCache{}
	}
	return &SessionStore{dir: dir, cache: cache}
}

// List 列出最近的会话，按修改时间倒序，至多 maxSessionList 条
func (s *SessionStore) List() []*model.Session {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return []*model.Session{}
	}

	type logFile struct {
		path  string
		stem  string
		size  int64
		mtime int64
	}
	var files []logFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{
			path:  filepath.Join(s.dir, e.Name()),
			stem:  strings.TrimSuffix(e.Name(), ".jsonl"),
			size:  info.Size(),
			mtime: info.ModTime().UnixNano(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mtime > files[j].mtime })
	if len(files) > maxSessionList {
		files = files[:maxSessionList]
	}

	sessions := make([]*model.Session, 0, len(files))
	for _, f := range files {
		if sess := s.parse(f.path, f.stem, f.size, f.mtime); sess != nil {
			sessions = append(sessions, sess)
		}
	}
	return sessions
}

// Get 按 id 取一个会话
//
// 先精确匹配 <id>.jsonl，找不到再按文件名子串匹配兜底。
func (s *SessionStore) Get(id string) *model.Session {
	if strings.ContainsAny(id, "/\\") {
		return nil
	}

	exact := filepath.Join(s.dir, id+".jsonl")
	if info, err := os.Stat(exact); err == nil {
		return s.parse(exact, id, info.Size(), info.ModTime().UnixNano())
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".jsonl")
		if !strings.Contains(stem, id) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		return s.parse(filepath.Join(s.dir, e.Name()), stem, info.Size(), info.ModTime().UnixNano())
	}
	return nil
}

// Recent 返回最近 n 条会话
func (s *SessionStore) Recent(n int) []*model.Session {
	sessions := s.List()
	if len(sessions) > n {
		sessions = sessions[:n]
	}
	return sessions
}

// parse 解析一份会话日志，缓存命中时跳过解析
func (s *SessionStore) parse(path, stem string, size, mtime int64) *model.Session {
	if cached, ok := s.cache.Lookup(path, size, mtime); ok {
		return cached
	}

	f, err := os.Open(path)
	if err != nil {
		log.Printf("[storage] open session log %s failed: %v", path, err)
		return nil
	}
	defer f.Close()

	sess := parser.ParseSession(f, stem)
	if sess != nil {
		s.cache.Store(path, size, mtime, sess)
	}
	return sess
}
