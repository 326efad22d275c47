package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
)

// RetryPolicy は「何回・どのくらい待つか」をまとめた設定。
type RetryPolicy struct {
	MaxAttempts int           // 合計の試行回数
	BaseBackoff time.Duration // 1 回目の待ち時間
	MaxBackoff  time.Duration // 待ち時間の上限
}

// DefaultReadRetry は読み取り（List / Get）向けのデフォルト。
// 書き込みは二重適用を避けるため retry しない。
var DefaultReadRetry = RetryPolicy{
	MaxAttempts: 3,
	BaseBackoff: 50 * time.Millisecond,
	MaxBackoff:  500 * time.Millisecond,
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = 10 * time.Millisecond
	}
	if p.MaxBackoff < p.BaseBackoff {
		p.MaxBackoff = p.BaseBackoff
	}
	return p
}

// backoff は attempt 回目（1 始まり）の失敗後に待つ時間。base * 2^(attempt-1) を上限で頭打ち。
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return d
}

// doWithRetry は retryable なエラーのみをバックオフ付きで再実行する。
// ctx の deadline/cancel は待機中でも即座に尊重する。
func doWithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	policy = policy.withDefaults()

	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn()
		if err == nil || !isRetryable(err) || attempt == policy.MaxAttempts {
			return err
		}

		t := time.NewTimer(policy.backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}

// MySQL のエラー番号（一時的なもの）
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// isRetryable は「もう一度やれば通るかもしれない」エラーだけ true。
func isRetryable(err error) bool {
	// ctx 系は retry しない（上位に返す）
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysqldrv.ErrInvalidConn) {
		return true
	}

	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errLockWaitTimeout, errDeadlock:
			return true
		default:
			return false
		}
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	return false
}
