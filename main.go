package main

import (
	"undercover-be/internal/api/http"
	"undercover-be/internal/config"
	"undercover-be/internal/logger"
	"undercover-be/internal/service"
	"undercover-be/internal/service/game"
	"undercover-be/internal/state"

	"github.com/namsral/flag"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认读取当前目录的 app_config.json")
	flag.Parse()

	// 加载配置
	cfg := config.InitConfig(*configPath)

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)

	pool := make([]game.SecretWords, 0, len(cfg.WordPairs))
	for _, pair := range cfg.WordPairs {
		words, err := game.NewSecretWords(pair.Citizen, pair.Undercover)
		if err != nil {
			zap.L().Warn("忽略无效的词语", zap.Any("pair", pair), zap.Error(err))
			continue
		}

		pool = append(pool, words)
	}

	zap.S().Infof("词库共 %d 组词语", len(pool))

	// 组装应用状态
	appState := state.NewAppState(
		cfg,
		service.NewSessionService(
			service.WithSessionTTL(cfg.SessionTTL),
			service.WithControllerFactory(service.NewControllerFactory(pool, cfg.Seed)),
		),
	)

	// 启动服务器
	http.RunServer(appState)
}
