package http

import (
	"undercover-be/internal/api/http/websocket"
	"undercover-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	if dir := appState.Cfg.StaticDir; dir != "" {
		app.HandleDir(
			"/",
			iris.Dir(dir),
			iris.DirOptions{
				IndexName: "index.html",
				SPA:       true,
				Compress:  true,
			},
		)
	}

	api := app.Party("/api/v1")

	api.Post("/sessions/create", CreateSession(appState))
	api.Get("/sessions/{id:string}", GetSession(appState))
	api.Get("/sessions/{id:string}/qrcode", SessionQRCode(appState))

	api.Get("/ws/join", websocket.JoinSession(appState))

	return app
}

func RunServer(appState *state.AppState) {
	app := NewApp(appState)

	// 收到中断信号时先关闭所有会话，iris 随后关闭服务器
	iris.RegisterOnInterrupt(appState.SessionSvc.Close)

	addr := appState.Cfg.Addr()
	zap.S().Infof("服务启动，监听 %s", addr)

	if err := app.Listen(addr); err != nil {
		zap.L().Error("服务退出", zap.Error(err))
	}
}
