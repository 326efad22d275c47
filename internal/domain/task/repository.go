package task

import "context"

// Repository はタスクの保管先を抽象化する。
// 実装は挿入順（= ID 昇順）で List を返し、ID を再利用してはならない。
type Repository interface {
	List(ctx context.Context) ([]*Task, error)
	Get(ctx context.Context, id int64) (*Task, error)
	Create(ctx context.Context, t *Task) (*Task, error)
	// Update は fn を現在値のコピーに適用し、fn がエラーを返さなければ保存する。
	Update(ctx context.Context, id int64, fn func(t *Task) error) (*Task, error)
	// Delete は削除したタスクの削除前の状態を返す。
	Delete(ctx context.Context, id int64) (*Task, error)
}
