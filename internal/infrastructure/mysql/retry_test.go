package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
)

var fastRetry = RetryPolicy{
	MaxAttempts: 3,
	BaseBackoff: time.Millisecond,
	MaxBackoff:  2 * time.Millisecond,
}

func TestRetryPolicy_Backoff(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{BaseBackoff: 50 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}

	want := []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		300 * time.Millisecond,
	}
	for i, w := range want {
		if got := p.backoff(i + 1); got != w {
			t.Errorf("backoff(%d): expected %v, got %v", i+1, w, got)
		}
	}
}

func TestDoWithRetry_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	err := doWithRetry(context.Background(), fastRetry, func() error {
		calls++
		if calls < 3 {
			return &mysqldrv.MySQLError{Number: errDeadlock, Message: "Deadlock found"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := doWithRetry(context.Background(), fastRetry, func() error {
		calls++
		return driver.ErrBadConn
	})
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("expected ErrBadConn, got %v", err)
	}
	if calls != fastRetry.MaxAttempts {
		t.Errorf("expected %d calls, got %d", fastRetry.MaxAttempts, calls)
	}
}

func TestDoWithRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	syntaxErr := &mysqldrv.MySQLError{Number: 1064, Message: "syntax error"}
	err := doWithRetry(context.Background(), fastRetry, func() error {
		calls++
		return syntaxErr
	})
	if !errors.Is(err, syntaxErr) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoWithRetry_RespectsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := doWithRetry(ctx, fastRetry, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected fn not to be called, got %d calls", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad conn", driver.ErrBadConn, true},
		{"invalid conn", mysqldrv.ErrInvalidConn, true},
		{"wrapped deadlock", fmt.Errorf("list: %w", &mysqldrv.MySQLError{Number: errDeadlock}), true},
		{"lock wait", &mysqldrv.MySQLError{Number: errLockWaitTimeout}, true},
		{"duplicate key", &mysqldrv.MySQLError{Number: 1062}, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		if got := isRetryable(tt.err); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
