package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain_task "github.com/hijjiri/tasklist/internal/domain/task"
	"go.uber.org/zap"
)

const createTasksTable = `CREATE TABLE IF NOT EXISTS tasks (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    title VARCHAR(255) NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT FALSE
)`

// TaskRepository は MySQL に保存するタスク置き場（TASK_STORE=mysql のときだけ使う）。
// AUTO_INCREMENT なので削除済みの ID は再利用されない。
type TaskRepository struct {
	tx        *TxManager
	logger    *zap.Logger
	readRetry RetryPolicy
}

func NewTaskRepository(db *sql.DB, logger *zap.Logger) *TaskRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskRepository{
		tx:        NewTxManager(db, logger),
		logger:    logger,
		readRetry: DefaultReadRetry,
	}
}

// Migrate はテーブルを作成し、空なら seed を投入する。
func (r *TaskRepository) Migrate(ctx context.Context, seed []*domain_task.Task) error {
	if _, err := r.tx.conn(ctx).ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}

	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		var n int
		if err := r.tx.conn(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}
		if n > 0 {
			return nil
		}

		for _, t := range seed {
			if _, err := r.Create(ctx, t); err != nil {
				return fmt.Errorf("seed tasks: %w", err)
			}
		}
		r.logger.Info("seeded tasks table", zap.Int("count", len(seed)))
		return nil
	})
}

// List は挿入順（id 昇順）で全件返す
func (r *TaskRepository) List(ctx context.Context) ([]*domain_task.Task, error) {
	var tasks []*domain_task.Task

	err := doWithRetry(ctx, r.readRetry, func() error {
		tasks = tasks[:0]

		rows, err := r.tx.conn(ctx).QueryContext(ctx, "SELECT id, title, completed FROM tasks ORDER BY id")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t domain_task.Task
			if err := rows.Scan(&t.ID, &t.Title, &t.Completed); err != nil {
				return err
			}
			tasks = append(tasks, &t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*domain_task.Task, error) {
	var t *domain_task.Task

	err := doWithRetry(ctx, r.readRetry, func() error {
		var err error
		t, err = r.selectOne(ctx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create は INSERT して採番された ID を付けて返す
func (r *TaskRepository) Create(ctx context.Context, t *domain_task.Task) (*domain_task.Task, error) {
	res, err := r.tx.conn(ctx).ExecContext(
		ctx,
		"INSERT INTO tasks (title, completed) VALUES (?, ?)",
		t.Title,
		t.Completed,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	created := t.Clone()
	created.ID = id
	return created, nil
}

// Update は SELECT ... FOR UPDATE で行ロックを取ってから fn を適用する。
func (r *TaskRepository) Update(ctx context.Context, id int64, fn func(t *domain_task.Task) error) (*domain_task.Task, error) {
	var updated *domain_task.Task

	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := r.selectOne(ctx, id, true)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}

		if _, err := r.tx.conn(ctx).ExecContext(
			ctx,
			"UPDATE tasks SET title = ?, completed = ? WHERE id = ?",
			t.Title,
			t.Completed,
			id,
		); err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}

		t.ID = id
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete は削除前の行を返す
func (r *TaskRepository) Delete(ctx context.Context, id int64) (*domain_task.Task, error) {
	var removed *domain_task.Task

	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := r.selectOne(ctx, id, true)
		if err != nil {
			return err
		}

		if _, err := r.tx.conn(ctx).ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete task %d: %w", id, err)
		}

		removed = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *TaskRepository) selectOne(ctx context.Context, id int64, forUpdate bool) (*domain_task.Task, error) {
	q := "SELECT id, title, completed FROM tasks WHERE id = ?"
	if forUpdate {
		q += " FOR UPDATE"
	}

	var t domain_task.Task
	err := r.tx.conn(ctx).QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Title, &t.Completed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain_task.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("select task %d: %w", id, err)
	}
	return &t, nil
}

//----------------------
// DB 接続 & ヘルスチェック
//----------------------

// Open は DB を開き、つながるまで ping を繰り返す。
func Open(ctx context.Context, dsn string, logger *zap.Logger, maxAttempts int, interval time.Duration) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	for i := 1; i <= maxAttempts; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}

		logger.Warn("failed to ping db",
			zap.Int("attempt", i),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("failed to ping db after %d attempts: %w", maxAttempts, err)
}
