// Package watcher 文件系统监听
//
// 基于 fsnotify 递归监听目录树，新建的子目录自动纳入监听。
// 每个路径独立去抖：窗口期内的重复事件只放行第一条。
// 事件经缓冲通道交给下游派发，通道满时丢弃并记录日志，
// 监听本身永不阻塞。
package watcher

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventKind 事件分类
type EventKind string

const (
	// KindStateDoc 状态文档变更
	KindStateDoc EventKind = "state_doc"
	// KindSessionLog 会话日志变更
	KindSessionLog EventKind = "session_log"
	// KindOther 其余文件变更
	KindOther EventKind = "other"
)

// Event 一次已分类、已去抖的文件变更
type Event struct {
	Path string
	Kind EventKind
}

// eventBuffer 下游缓冲通道容量
const eventBuffer = 256

// Watcher 递归文件监听器
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	events   chan Event
	done     chan struct{}

	mu   sync.Mutex
	last map[string]time.Time
}

// New 创建监听器并启动事件循环
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		events:   make(chan Event, eventBuffer),
		done:     make(chan struct{}),
		last:     make(map[string]time.Time),
	}
	go w.loop()
	return w, nil
}

// Add 递归纳入一棵目录树
//
// 目录不存在只记录日志，不算错误：被监听的目录可能尚未创建。
func (w *Watcher) Add(root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				log.Printf("[watcher] watch %s failed: %v", path, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[watcher] walk %s failed: %v", root, err)
	}
}

// Events 已分类、已去抖的事件流
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close 停止监听并关闭事件通道
func (w *Watcher) Close() {
	close(w.done)
	w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.events)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// 新目录纳入监听，fsnotify 不做递归
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.Add(ev.Name)
			return
		}
	}
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	if !w.admit(ev.Name, time.Now()) {
		return
	}

	select {
	case w.events <- Event{Path: ev.Name, Kind: Classify(ev.Name)}:
	default:
		log.Printf("[watcher] event buffer full, dropping %s", ev.Name)
	}
}

// admit 路径级去抖，窗口期内的重复事件被拒绝
//
// 顺带淘汰窗口外的旧记录，长期运行下 map 不随路径数无界增长。
func (w *Watcher) admit(path string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.last[path]; ok && now.Sub(prev) < w.debounce {
		return false
	}
	for p, at := range w.last {
		if now.Sub(at) >= w.debounce {
			delete(w.last, p)
		}
	}
	w.last[path] = now
	return true
}

// Classify 按文件名分类一条变更
func Classify(path string) EventKind {
	base := filepath.Base(path)
	switch {
	case base == "50_state.md":
		return KindStateDoc
	case strings.HasSuffix(base, ".jsonl"):
		return KindSessionLog
	default:
		return KindOther
	}
}
