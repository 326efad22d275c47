package httpadapter

import (
	"encoding/json"
	"net/http"

	domain_task "github.com/hijjiri/tasklist/internal/domain/task"
)

const (
	msgTaskCreated   = "task created"
	msgTaskUpdated   = "task updated"
	msgTaskDeleted   = "task deleted"
	msgTitleRequired = "title is required"
	msgTaskNotFound  = "task not found"
	msgRouteNotFound = "route not found"
	msgTimeout       = "request timeout"
	msgInternal      = "internal error"
)

// envelope は全エンドポイント共通のレスポンス形式（/health を除く）。
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

type taskResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// --- converter (domain -> json) ---

func toTaskResponse(t *domain_task.Task) taskResponse {
	return taskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
	}
}

// 空でも [] を返す（null にしない）
func toTaskResponses(tasks []*domain_task.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

// --- writers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeTask(w http.ResponseWriter, status int, t *domain_task.Task, message string) {
	writeJSON(w, status, envelope{
		Success: true,
		Data:    toTaskResponse(t),
		Message: message,
	})
}

func writeTaskList(w http.ResponseWriter, tasks []*domain_task.Task) {
	data := toTaskResponses(tasks)
	count := len(data)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    data,
		Count:   &count,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{
		Success: false,
		Message: message,
	})
}
