package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"undercover-be/internal/service"
	"undercover-be/internal/service/game"
	"undercover-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// 会话推送的响应缓冲，展示端写入过慢时多余的状态会被丢弃
const RESP_BUFFER_SIZE = 64

func JoinSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		sessionID := ctx.URLParam("session_id")
		clientIP := ctx.RemoteAddr()

		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		svc := appState.SessionSvc

		// 由会话协程关闭
		respCh := make(chan game.ResponseWrapper, RESP_BUFFER_SIZE)

		clientID, err := svc.Join(sessionID, respCh)
		if err != nil {
			zap.L().Warn(
				"加入会话失败",
				zap.String("client_ip", clientIP),
				zap.String("session_id", sessionID),
				zap.Error(err),
			)

			conn.WriteJSON(game.WrapErrResponse(err.Error()))
			closeWith(conn, websocket.ClosePolicyViolation, "join failed")

			return
		}

		zap.L().Info(
			"展示端成功加入会话",
			zap.String("client_ip", clientIP),
			zap.String("session_id", sessionID),
			zap.String("client_id", clientID),
		)

		// 读协程产生的错误响应，写操作只在写协程中进行
		errCh := make(chan game.ResponseWrapper, 8)
		stopCh := make(chan struct{})
		writeDoneCh := make(chan struct{})

		go func() {
			defer close(writeDoneCh)

			ticker := time.NewTicker(HEARTBEAT_INTERVAL)
			defer ticker.Stop()

			for {
				var resp game.ResponseWrapper

				select {
				case <-stopCh:
					return

				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						zap.L().Error(
							"发送心跳失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}

					continue

				case resp = <-errCh:

				case r, ok := <-respCh:
					// 会话已关闭，断开连接让读循环退出
					if !ok {
						zap.L().Info(
							"响应通道已关闭，退出写协程",
							zap.String("client_id", clientID),
						)

						closeWith(conn, websocket.CloseGoingAway, "session closed")
						conn.Close()

						return
					}

					resp = r
				}

				conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

				if err := conn.WriteJSON(resp); err != nil {
					zap.L().Error(
						"发送消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
					return
				}

				zap.L().Debug(
					"发送消息",
					zap.String("client_id", clientID),
					zap.String("response_type", resp.RespType),
				)
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

			var wrapper game.RequestWrapper

			if err := json.Unmarshal(msg, &wrapper); err != nil {
				zap.L().Debug(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)

				pushErr(errCh, "无效的请求格式")

				continue
			}

			if err := svc.Dispatch(sessionID, clientID, wrapper); err != nil {
				pushErr(errCh, err.Error())

				if errors.Is(err, service.ErrSessionNotFound) {
					break
				}
			}
		}

		zap.L().Info(
			"展示端连接断开",
			zap.String("client_ip", clientIP),
			zap.String("client_id", clientID),
		)

		svc.Leave(sessionID, clientID)

		close(stopCh)
		<-writeDoneCh
	}
}

func pushErr(errCh chan game.ResponseWrapper, msg string) {
	select {
	case errCh <- game.WrapErrResponse(msg):
	default:
		zap.L().Warn("错误响应通道已满", zap.String("error", msg))
	}
}
