package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"schema-display/internal/adapter"
	"schema-display/internal/diagram"
	"schema-display/internal/graph"
	"schema-display/internal/mapping"
)

// SchemaGraphRequest ER 图请求
type SchemaGraphRequest struct {
	Tables  []adapter.Table        `json:"tables"`
	Options *diagram.SchemaOptions `json:"options,omitempty"` // 在默认选项上覆盖
	Format  string                 `json:"format,omitempty"`  // 为空返回 DOT，否则调用 Graphviz 渲染
}

// UMLGraphRequest 类图请求
type UMLGraphRequest struct {
	Mappings []mapping.Mapping   `json:"mappings"`
	Options  *diagram.UMLOptions `json:"options,omitempty"`
	Format   string              `json:"format,omitempty"`
}

// GraphResponse 图生成结果
type GraphResponse struct {
	DOT   string `json:"dot"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

var contentTypes = map[string]string{
	"svg":  "image/svg+xml",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"pdf":  "application/pdf",
	"json": "application/json",
}

// handleSchemaGraph 根据表描述生成 ER 图
func (s *Server) handleSchemaGraph(c *gin.Context) {
	// 先填入默认选项，JSON 只覆盖出现的字段
	defaults := diagram.DefaultSchemaOptions()
	req := SchemaGraphRequest{Options: &defaults}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "请求格式错误")
		return
	}
	if req.Options == nil {
		req.Options = &defaults
	}

	g, err := diagram.BuildSchemaGraph(req.Tables, *req.Options)
	s.respondGraph(c, g, err, req.Format)
}

// handleUMLGraph 根据映射描述生成类图
func (s *Server) handleUMLGraph(c *gin.Context) {
	defaults := diagram.DefaultUMLOptions()
	req := UMLGraphRequest{Options: &defaults}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "请求格式错误")
		return
	}
	if req.Options == nil {
		req.Options = &defaults
	}

	g, err := diagram.BuildUMLGraph(req.Mappings, *req.Options)
	s.respondGraph(c, g, err, req.Format)
}

func (s *Server) respondGraph(c *gin.Context, g *graph.Graph, err error, format string) {
	if err != nil {
		if graph.IsInputError(err) {
			fail(c, http.StatusBadRequest, err, "输入描述不合法")
			return
		}
		fail(c, http.StatusInternalServerError, err, "生成图失败")
		return
	}

	format = strings.ToLower(format)
	switch format {
	case "", "dot":
		success(c, http.StatusOK, GraphResponse{
			DOT:   g.DOT(),
			Nodes: len(g.Nodes()),
			Edges: len(g.Edges()),
		}, "")
		return
	case "json":
		data, err := g.ToJSON()
		if err != nil {
			fail(c, http.StatusInternalServerError, err, "导出 JSON 失败")
			return
		}
		c.Data(http.StatusOK, contentTypes[format], data)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	data, err := s.graphviz.Render(ctx, g, format)
	if err != nil {
		fail(c, http.StatusInternalServerError, err, "Graphviz 渲染失败")
		return
	}
	contentType, ok := contentTypes[format]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}

// handleAnalyze 创建异步分析任务
func (s *Server) handleAnalyze(c *gin.Context) {
	defaults := diagram.DefaultSchemaOptions()
	req := AnalysisRequest{Options: &defaults}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "请求格式错误")
		return
	}
	if req.DBType == "mysql" && req.Schema == "" {
		fail(c, http.StatusBadRequest, nil, "MySQL 需要指定 schema")
		return
	}

	task := s.tasks.Create()

	// 异步执行分析
	go s.runAnalysis(s.ctx, task.ID, req)

	success(c, http.StatusAccepted, gin.H{
		"task_id": task.ID,
		"status":  task.Status,
	}, task.Message)
}

// handleTaskStatus 查询任务状态
func (s *Server) handleTaskStatus(c *gin.Context) {
	task, ok := s.tasks.Get(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, nil, "Task not found")
		return
	}
	success(c, http.StatusOK, task, "")
}

// handleTestConnection 测试数据库连接
func (s *Server) handleTestConnection(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "请求格式错误")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	dbAdapter, err := s.open(ctx, req.DBType, req.ConnString(), req.Schema)
	if err != nil {
		success(c, http.StatusOK, gin.H{"success": false}, fmt.Sprintf("连接失败: %v", err))
		return
	}
	dbAdapter.Close()

	success(c, http.StatusOK, gin.H{"success": true}, "连接成功！")
}
