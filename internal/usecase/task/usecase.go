package task_usecase

import (
	"context"

	domain_task "github.com/hijjiri/tasklist/internal/domain/task"
	"go.uber.org/zap"
)

// ===== 外部に公開する Usecase インターフェース =====

type Usecase interface {
	List(ctx context.Context) ([]*domain_task.Task, error)
	Get(ctx context.Context, id int64) (*domain_task.Task, error)
	Create(ctx context.Context, title string, completed bool) (*domain_task.Task, error)
	Update(ctx context.Context, id int64, patch domain_task.Patch) (*domain_task.Task, error)
	Delete(ctx context.Context, id int64) (*domain_task.Task, error)
}

// ===== 実装 =====

type usecase struct {
	repo   domain_task.Repository
	logger *zap.Logger
}

func New(repo domain_task.Repository, logger *zap.Logger) Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &usecase{repo: repo, logger: logger}
}

// List ユースケース。空でも nil ではなく空スライスを返す。
func (u *usecase) List(ctx context.Context) ([]*domain_task.Task, error) {
	tasks, err := u.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*domain_task.Task{}
	}
	return tasks, nil
}

// Get ユースケース
func (u *usecase) Get(ctx context.Context, id int64) (*domain_task.Task, error) {
	if err := domain_task.ValidateID(id); err != nil {
		return nil, err
	}
	return u.repo.Get(ctx, id)
}

// Create ユースケース。検証に失敗した場合は repo に触れない（ID も消費しない）。
func (u *usecase) Create(ctx context.Context, title string, completed bool) (*domain_task.Task, error) {
	t, err := domain_task.NewTask(title, completed)
	if err != nil {
		return nil, err
	}

	created, err := u.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}

	u.logger.Info("task created",
		zap.Int64("id", created.ID),
		zap.Bool("completed", created.Completed),
	)
	return created, nil
}

// Update ユースケース。指定されたフィールドだけを反映する。
// 存在チェックが先、タイトル検証が後。
func (u *usecase) Update(ctx context.Context, id int64, patch domain_task.Patch) (*domain_task.Task, error) {
	if err := domain_task.ValidateID(id); err != nil {
		return nil, err
	}

	updated, err := u.repo.Update(ctx, id, func(t *domain_task.Task) error {
		return t.Apply(patch)
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("task updated",
		zap.Int64("id", updated.ID),
		zap.Bool("title_changed", patch.Title != nil),
		zap.Bool("completed_changed", patch.Completed != nil),
	)
	return updated, nil
}

// Delete ユースケース。削除前の状態を返す。
func (u *usecase) Delete(ctx context.Context, id int64) (*domain_task.Task, error) {
	if err := domain_task.ValidateID(id); err != nil {
		return nil, err
	}

	removed, err := u.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	u.logger.Info("task deleted", zap.Int64("id", removed.ID))
	return removed, nil
}
