// Package storage 文件系统之上的实体存储
//
// projectconfig.go 项目配置存储，读取 .ai/project/config.yaml。
package storage

import (
	"os"

	"workflow-dashboard/internal/model"
	"workflow-dashboard/internal/parser"
)

// ConfigStore 项目配置存储
type ConfigStore struct {
	path string
}

// NewConfigStore 创建项目配置存储
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

// Get 返回项目配置，文件缺失或损坏时为全零值
func (s *ConfigStore) Get() model.ProjectConfig {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return model.ProjectConfig{}
	}
	return parser.ParseProjectConfig(string(content))
}
