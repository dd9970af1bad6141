package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// pollInterval 任务状态推送间隔
var pollInterval = 500 * time.Millisecond

// handleWebSocket 持续推送任务状态，任务结束或不存在时关闭连接
func (s *Server) handleWebSocket(c *gin.Context) {
	taskID := c.Query("task_id")
	if taskID == "" {
		fail(c, http.StatusBadRequest, nil, "缺少 task_id")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		task, exists := s.tasks.Get(taskID)
		if !exists {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task not found"))
			return
		}

		if err := conn.WriteJSON(task); err != nil {
			return
		}

		if task.Finished() {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, task.Status))
			return
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}
