package task

import (
	"errors"
	"strings"
)

// Task はタスク一覧の集約ルート。
type Task struct {
	ID        int64
	Title     string
	Completed bool
}

// ---- ドメインエラー（sentinel error） ----

var (
	// トリム後のタイトルが空のとき。
	ErrEmptyTitle = errors.New("task title must not be empty")

	// ID が 0 以下など、どのタスクにも一致し得ないとき。
	ErrInvalidID = errors.New("task id must be positive")

	// 指定 ID のタスクが存在しないとき。
	ErrNotFound = errors.New("task not found")
)

// ---- ファクトリ / バリデーション ----

// NewTask は新規作成用のコンストラクタ。
// タイトルはトリムしてから「空文字禁止」をチェックする。
func NewTask(title string, completed bool) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	return &Task{
		Title:     title,
		Completed: completed,
	}, nil
}

// ChangeTitle はタイトル変更用メソッド。作成時と同じルールを適用する。
func (t *Task) ChangeTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	t.Title = title
	return nil
}

// Patch は部分更新の入力。nil のフィールドは変更しない。
type Patch struct {
	Title     *string
	Completed *bool
}

// Apply は Patch を適用する。
// エラー時は t を一切変更しない（タイトル検証を先に済ませる）。
func (t *Task) Apply(p Patch) error {
	next := *t
	if p.Title != nil {
		if err := next.ChangeTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Completed != nil {
		next.Completed = *p.Completed
	}
	*t = next
	return nil
}

// Clone はストア外へ渡すためのコピーを返す。
func (t *Task) Clone() *Task {
	c := *t
	return &c
}

// ValidateID は ID まわりの共通バリデーション。
func ValidateID(id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return nil
}
