package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"time"

	domain_task "github.com/hijjiri/tasklist/internal/domain/task"
	task_usecase "github.com/hijjiri/tasklist/internal/usecase/task"
	"go.uber.org/zap"
)

// ISO 8601 / ミリ秒 / UTC
const healthTimeLayout = "2006-01-02T15:04:05.000Z07:00"

type TaskHandler struct {
	uc     task_usecase.Usecase
	logger *zap.Logger

	startedAt time.Time
	now       func() time.Time
}

func NewTaskHandler(uc task_usecase.Usecase, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{
		uc:        uc,
		logger:    logger,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// --- GET /tasks ---
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	tasks, err := h.uc.List(r.Context())
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeTaskList(w, tasks)
}

// --- GET /tasks/{id} ---
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request, params map[string]string) {
	t, err := h.uc.Get(r.Context(), parseID(params["id"]))
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeTask(w, http.StatusOK, t, "")
}

// --- POST /tasks ---
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	t, err := h.uc.Create(r.Context(), req.title(), req.completed())
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeTask(w, http.StatusCreated, t, msgTaskCreated)
}

// --- PUT /tasks/{id} ---
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	t, err := h.uc.Update(r.Context(), parseID(params["id"]), req.toPatch())
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeTask(w, http.StatusOK, t, msgTaskUpdated)
}

// --- DELETE /tasks/{id} ---
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request, params map[string]string) {
	t, err := h.uc.Delete(r.Context(), parseID(params["id"]))
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeTask(w, http.StatusOK, t, msgTaskDeleted)
}

// --- GET /health ---
// envelope ではなく素のオブジェクトを返す。
func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	now := h.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: now.UTC().Format(healthTimeLayout),
		Uptime:    now.Sub(h.startedAt).Seconds(),
	})
}

func (h *TaskHandler) writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := toHTTPError(err)
	if status >= http.StatusInternalServerError {
		// Internal詳細はログ側にだけ残す
		rid, _ := RequestIDFromContext(r.Context())
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", rid),
			zap.Error(err),
		)
	}
	writeError(w, status, msg)
}

// --- error mapper ---
func toHTTPError(err error) (int, string) {
	var reqErr *RequestError

	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, reqErr.Error()

	case errors.Is(err, domain_task.ErrEmptyTitle):
		return http.StatusBadRequest, msgTitleRequired

	// :id は緩く解釈するので、不正な ID も「見つからない」に寄せる
	case errors.Is(err, domain_task.ErrInvalidID),
		errors.Is(err, domain_task.ErrNotFound):
		return http.StatusNotFound, msgTaskNotFound

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, msgTimeout

	default:
		return http.StatusInternalServerError, msgInternal
	}
}
