package server

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"schema-display/internal/adapter"
	"schema-display/internal/analyzer"
	"schema-display/internal/diagram"
	"schema-display/internal/renderer"
)

// 任务状态
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalysisRequest 分析请求
type AnalysisRequest struct {
	DBType   string                 `json:"db_type" binding:"required,oneof=sqlserver mysql postgres"`
	Conn     string                 `json:"conn"` // 完整连接串，优先于下面的字段
	Host     string                 `json:"host"`
	Port     string                 `json:"port"`
	Username string                 `json:"username"`
	Password string                 `json:"password"`
	Database string                 `json:"database"`
	Schema   string                 `json:"schema"` // MySQL 必填，PostgreSQL 默认 public，SQL Server 默认 dbo
	Infer    bool                   `json:"infer"`  // 推断未声明的外键
	Options  *diagram.SchemaOptions `json:"options,omitempty"`
}

// ConnString 按数据库类型拼接连接串
func (r AnalysisRequest) ConnString() string {
	if r.Conn != "" {
		return r.Conn
	}
	switch r.DBType {
	case "sqlserver":
		return fmt.Sprintf("server=%s;port=%s;user id=%s;password=%s;database=%s",
			r.Host, r.Port, r.Username, r.Password, r.Database)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?timeout=30s&readTimeout=30s&writeTimeout=30s",
			r.Username, r.Password, r.Host, r.Port, r.Database)
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(r.Username, r.Password),
			Host:   r.Host + ":" + r.Port,
			Path:   "/" + r.Database,
		}
		return u.String()
	}
	return ""
}

// AnalysisTask 分析任务
type AnalysisTask struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`   // pending/running/completed/failed
	Progress  int             `json:"progress"` // 0-100
	Message   string          `json:"message"`
	Result    *AnalysisResult `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AnalysisResult 分析结果
type AnalysisResult struct {
	DOT       string         `json:"dot"`
	GraphJSON string         `json:"graph_json"`
	DictMD    string         `json:"dict_md"`
	ErMermaid string         `json:"er_mermaid"`
	Stats     map[string]int `json:"stats"`
}

// TaskStore 内存中的任务表
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*AnalysisTask
}

// NewTaskStore 创建任务表
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*AnalysisTask)}
}

// Create 创建一个待执行任务
func (s *TaskStore) Create() *AnalysisTask {
	now := time.Now()
	task := &AnalysisTask{
		ID:        fmt.Sprintf("task_%d", now.UnixNano()),
		Status:    StatusPending,
		Message:   "任务已创建，等待执行...",
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()
	return task
}

// Get 返回任务快照，调用方可以安全读取
func (s *TaskStore) Get(id string) (AnalysisTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return AnalysisTask{}, false
	}
	return *task, true
}

func (s *TaskStore) update(id, status string, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[id]; ok {
		task.Status = status
		task.Progress = progress
		task.Message = message
		task.UpdatedAt = time.Now()
	}
}

func (s *TaskStore) complete(id string, result *AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[id]; ok {
		task.Result = result
		task.Status = StatusCompleted
		task.Progress = 100
		task.Message = "分析完成！"
		task.UpdatedAt = time.Now()
	}
}

// Sweep 删除结束时间早于 maxAge 之前的任务，返回删除数量；运行中的任务保留
func (s *TaskStore) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, task := range s.tasks {
		if task.Finished() && task.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// Len 当前保存的任务数
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Finished 任务是否已经结束
func (t AnalysisTask) Finished() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// runAnalysis 执行分析：读取元数据、可选推断关系、生成 ER 图和文档
func (s *Server) runAnalysis(ctx context.Context, taskID string, req AnalysisRequest) {
	tasks := s.tasks

	tasks.update(taskID, StatusRunning, 10, "正在连接数据库...")

	dbAdapter, err := s.open(ctx, req.DBType, req.ConnString(), req.Schema)
	if err != nil {
		tasks.update(taskID, StatusFailed, 0, fmt.Sprintf("连接失败: %v", err))
		return
	}

	tasks.update(taskID, StatusRunning, 20, "获取数据库元数据...")

	// 元数据读取完成后即可释放连接
	meta, err := dbAdapter.IntrospectSchema(ctx)
	dbAdapter.Close()
	if err != nil {
		tasks.update(taskID, StatusFailed, 20, fmt.Sprintf("获取元数据失败: %v", err))
		return
	}

	inferred := 0
	if req.Infer {
		tasks.update(taskID, StatusRunning, 40, fmt.Sprintf("发现 %d 个表，推断表间关系...", len(meta.Tables)))
		inferer := analyzer.NewRelationshipInferer()
		inferer.Progress = func(done, total int) {
			tasks.update(taskID, StatusRunning, 40+done*40/total, fmt.Sprintf("列比较进度 %d/%d", done, total))
		}
		inferred = inferer.Apply(meta.Tables)
	}

	tasks.update(taskID, StatusRunning, 85, "构建 ER 图...")

	opts := diagram.DefaultSchemaOptions()
	if req.Options != nil {
		opts = *req.Options
	}
	g, err := diagram.BuildSchemaGraph(meta.Tables, opts)
	if err != nil {
		tasks.update(taskID, StatusFailed, 85, fmt.Sprintf("构建 ER 图失败: %v", err))
		return
	}

	tasks.update(taskID, StatusRunning, 95, "生成输出...")

	graphJSON, err := g.ToJSON()
	if err != nil {
		tasks.update(taskID, StatusFailed, 95, fmt.Sprintf("导出 JSON 失败: %v", err))
		return
	}

	declared := 0
	for _, t := range meta.Tables {
		declared += len(t.ForeignKeys)
	}

	tasks.complete(taskID, &AnalysisResult{
		DOT:       g.DOT(),
		GraphJSON: string(graphJSON),
		DictMD:    renderer.NewMarkdownRenderer().Render(meta.Tables),
		ErMermaid: renderer.NewMermaidRenderer().Render(meta.Tables),
		Stats: map[string]int{
			"tables":    len(meta.Tables),
			"nodes":     len(g.Nodes()),
			"edges":     len(g.Edges()),
			"relations": declared - inferred,
			"inferred":  inferred,
		},
	})
}

// openFunc 与 adapter.Open 签名一致，测试中替换
type openFunc func(ctx context.Context, dbType, connStr, schema string) (adapter.DBAdapter, error)
