package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewLogger は LOG_LEVEL に応じて zap.Logger を作る。
// debug のときだけ development 設定（人間向けの出力）にする。
func NewLogger(level string) (*zap.Logger, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zap.NewDevelopment()
	case "", "info":
		return zap.NewProduction()
	default:
		cfg := zap.NewProductionConfig()
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		cfg.Level = lvl
		return cfg.Build()
	}
}
