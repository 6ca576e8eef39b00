// Package model 定义核心数据模型
//
// git.go 包含从版本控制输出解析出的提交模型。
// 这些实体由 gitcli 调用按需生成，不进入任何缓存。
package model

// Commit 一次提交
type Commit struct {
	Hash         string       `json:"hash"`
	ShortHash    string       `json:"short_hash"`
	Message      string       `json:"message"`
	Author       string       `json:"author"`
	Date         string       `json:"date"`
	FilesChanged int          `json:"files_changed"`
	Insertions   int          `json:"insertions"`
	Deletions    int          `json:"deletions"`
	Files        []CommitFile `json:"files,omitempty"`
	Diff         string       `json:"diff,omitempty"`
}

// CommitFile 提交内单文件变更
//
// Status 取值：added / modified / deleted / renamed / copied，
// 无法解析的状态一律视为 modified。
type CommitFile struct {
	Path       string `json:"path"`
	Status     string `json:"status"`
	Insertions int    `json:"insertions"`
	Deletions  int    `json:"deletions"`
}
