// Package main 仪表盘服务入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workflow-dashboard/internal/apiserver/server"
	"workflow-dashboard/internal/config"
	"workflow-dashboard/internal/watcher"
)

func main() {
	// 加载配置（自动加载 .env 与 dashboard.yaml，环境变量优先）
	cfg := config.Load()

	log.Printf("Starting dashboard server...")
	log.Printf("Config: %s", cfg.String())

	h := server.NewHandler(cfg)

	// 文件监听：特性目录与会话日志目录
	w, err := watcher.New(cfg.Debounce)
	if err != nil {
		log.Fatalf("Failed to start file watcher: %v", err)
	}
	defer w.Close()
	w.Add(cfg.AIDir)
	w.Add(cfg.SessionLogsDir)

	// 事件派发循环：失效缓存并广播到 WebSocket 客户端
	go h.StartDispatcher(w.Events())

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Dashboard server listening on %s", cfg.Addr())
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
