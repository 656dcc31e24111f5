package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel 把配置中的日志级别转换为 zap 级别，无法识别时使用 info
func ParseLevel(logLevel string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(logLevel)))
	if err != nil {
		return zap.InfoLevel
	}

	return level
}

func NewLogger(logLevel string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level.SetLevel(ParseLevel(logLevel))

	// 游戏日志按会话排查即可，不需要每条都附带调用栈
	cfg.DisableStacktrace = true

	return cfg.Build()
}

func InitLogger(logLevel string) {
	lgr, err := NewLogger(logLevel)
	if err != nil {
		panic(fmt.Errorf("构建日志器失败: %w", err))
	}

	zap.ReplaceGlobals(lgr)

	zap.S().Infof("日志级别：%s", ParseLevel(logLevel))
}
