package observability

import "testing"

func TestNewLogger(t *testing.T) {
	t.Parallel()

	for _, lvl := range []string{"", "info", "debug", "warn", "error"} {
		logger, err := NewLogger(lvl)
		if err != nil {
			t.Errorf("NewLogger(%q) returned error: %v", lvl, err)
			continue
		}
		_ = logger.Sync()
	}

	if _, err := NewLogger("loud"); err == nil {
		t.Error("expected error for unknown level, got nil")
	}
}
