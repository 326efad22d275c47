// internal/infrastructure/memory/task_repository.go
package memory

import (
	"context"
	"sync"

	domain_task "github.com/hijjiri/tasklist/internal/domain/task"
)

// TaskRepository はプロセス内だけで完結するタスク置き場。
// スライスで挿入順を保持し、next は払い出した ID の最大値より常に大きい。
type TaskRepository struct {
	mu    sync.Mutex
	next  int64
	items []*domain_task.Task
}

// NewTaskRepository は seed を挿入順のまま取り込む。
// ID が 0 の seed には採番し、それ以外は next を追い越さないよう調整する。
func NewTaskRepository(seed ...*domain_task.Task) *TaskRepository {
	r := &TaskRepository{
		next:  1,
		items: make([]*domain_task.Task, 0, len(seed)),
	}
	for _, t := range seed {
		c := t.Clone()
		if c.ID <= 0 {
			c.ID = r.next
		}
		if c.ID >= r.next {
			r.next = c.ID + 1
		}
		r.items = append(r.items, c)
	}
	return r
}

func (r *TaskRepository) List(ctx context.Context) ([]*domain_task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]*domain_task.Task, 0, len(r.items))
	for _, t := range r.items {
		tasks = append(tasks, t.Clone())
	}
	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*domain_task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain_task.ErrNotFound
	}
	return r.items[i].Clone(), nil
}

func (r *TaskRepository) Create(ctx context.Context, t *domain_task.Task) (*domain_task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := t.Clone()
	stored.ID = r.next
	r.next++

	r.items = append(r.items, stored)
	return stored.Clone(), nil
}

func (r *TaskRepository) Update(ctx context.Context, id int64, fn func(t *domain_task.Task) error) (*domain_task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain_task.ErrNotFound
	}

	// fn が失敗しても保存済みの値は変えない
	draft := r.items[i].Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	draft.ID = id

	r.items[i] = draft
	return draft.Clone(), nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) (*domain_task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain_task.ErrNotFound
	}

	removed := r.items[i]
	r.items = append(r.items[:i], r.items[i+1:]...)
	return removed, nil
}

// Len は現在の件数。メトリクスの GaugeFunc から呼ばれる。
func (r *TaskRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// 呼び出し側で mu を保持していること
func (r *TaskRepository) indexOf(id int64) int {
	for i, t := range r.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}
