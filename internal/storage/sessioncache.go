// Package storage 文件系统之上的实体存储
//
// 每个 Store 包装一块磁盘区域（特性目录、会话日志目录、插件目录），
// 负责文件发现、缓存与失效，解析本身交给 parser 包。
// 缓存原则与解析一致：磁盘异常降级为空结果，不向上传播。
//
// sessioncache.go 会话解析结果的 SQLite 缓存。
// 会话日志只追加不修改，(路径, 大小, 修改时间) 三元组命中即复用
// 上次的解析结果，避免每次请求重扫大文件。
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"workflow-dashboard/internal/model"
)

const sessionCacheSchema = `
CREATE TABLE IF NOT EXISTS session_cache (
    path   TEXT PRIMARY KEY,
    size   INTEGER NOT NULL,
    mtime  INTEGER NOT NULL,
    payload TEXT NOT NULL
);
`

// SessionCache 会话解析结果缓存
//
// db 为 nil 时所有方法都是空操作，调用方无需判空。
type SessionCache struct {
	db *sql.DB
}

// OpenSessionCache 打开缓存数据库
//
// 打开失败只记录日志并返回空操作缓存，会话解析退化为直读。
func OpenSessionCache(path string) *SessionCache {
	if path == "" {
		return &SessionCache{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("[storage] create cache dir failed: %v", err)
		return &SessionCache{}
	}

	db, err := openSQLite(path)
	if err != nil {
		log.Printf("[storage] open session cache failed: %v", err)
		return &SessionCache{}
	}
	if _, err := db.Exec(sessionCacheSchema); err != nil {
		log.Printf("[storage] init session cache schema failed: %v", err)
		db.Close()
		return &SessionCache{}
	}
	return &SessionCache{db: db}
}

// openSQLite 创建 SQLite 连接
func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return db, nil
}

// Lookup 按 (路径, 大小, 修改时间) 查缓存
func (c *SessionCache) Lookup(path string, size, mtime int64) (*model.Session, bool) {
	if c.db == nil {
		return nil, false
	}
	var payload string
	err := c.db.QueryRow(
		`SELECT payload FROM session_cache WHERE path = ? AND size = ? AND mtime = ?`,
		path, size, mtime,
	).Scan(&payload)
	if err != nil {
		return nil, false
	}
	var s model.Session
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, false
	}
	return &s, true
}

// Store 写入或覆盖一条缓存
func (c *SessionCache) Store(path string, size, mtime int64, s *model.Session) {
	if c.db == nil || s == nil {
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return
	}
	_, err = c.db.Exec(
		`INSERT INTO session_cache (path, size, mtime, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET size = excluded.size, mtime = excluded.mtime, payload = excluded.payload`,
		path, size, mtime, string(payload),
	)
	if err != nil {
		log.Printf("[storage] store session cache failed: %v", err)
	}
}

// Close 关闭缓存数据库
func (c *SessionCache) Close() {
	if c.db != nil {
		c.db.Close()
	}
}
