// Package server 提供 HTTP 接口：同步生成 ER 图、类图，以及异步的数据库分析任务。
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schema-display/internal/adapter"
	"schema-display/internal/config"
	"schema-display/internal/renderer"
)

// Server HTTP 服务
type Server struct {
	cfg      *config.Config
	tasks    *TaskStore
	graphviz *renderer.GraphvizRenderer
	open     openFunc
	// ctx 后台分析任务使用，服务关闭时取消
	ctx    context.Context
	cancel context.CancelFunc
}

// New 创建服务
func New(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		tasks:    NewTaskStore(),
		graphviz: renderer.NewGraphvizRenderer(cfg.GraphvizPath),
		open:     adapter.Open,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// sweepInterval 清理过期任务的间隔，测试中缩短
var sweepInterval = 10 * time.Minute

// sweepTasks 定期清理已结束且超过 TaskTTL 的任务，直到 ctx 取消
func (s *Server) sweepTasks(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.tasks.Sweep(s.cfg.TaskTTL); n > 0 {
				log.Printf("清理了 %d 个过期任务", n)
			}
		}
	}
}

// Router 注册路由
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "schema-display API",
		})
	})

	api := router.Group("/api")
	{
		api.POST("/schema-graph", s.handleSchemaGraph)
		api.POST("/uml-graph", s.handleUMLGraph)
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/test-connection", s.handleTestConnection)
		api.GET("/task/:id", s.handleTaskStatus)
		api.GET("/ws", s.handleWebSocket)
	}
	return router
}

// Run 启动服务，直到 ctx 取消
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.TaskTTL > 0 {
		go s.sweepTasks(s.ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("正在关闭服务...")
		s.cancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
