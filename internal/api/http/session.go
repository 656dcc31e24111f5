package http

import (
	"errors"
	"net/url"
	"strings"

	"undercover-be/internal/service"
	"undercover-be/internal/service/dto"
	"undercover-be/internal/state"

	"github.com/kataras/iris/v12"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const QRCODE_SIZE = 256

// joinURL 是展示端打开会话的地址，二维码中编码的也是它
func joinURL(publicURL, sessionID string) string {
	return strings.TrimRight(publicURL, "/") + "/?session=" + url.QueryEscape(sessionID)
}

func writeError(ctx iris.Context, err error) {
	status := iris.StatusBadRequest
	if errors.Is(err, service.ErrSessionNotFound) {
		status = iris.StatusNotFound
	} else if errors.Is(err, service.ErrSessionBusy) {
		status = iris.StatusServiceUnavailable
	}

	ctx.StatusCode(status)
	ctx.JSON(dto.ErrorResponse{Error: err.Error()})
}

func CreateSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.CreateSession()
		if err != nil {
			writeError(ctx, err)
			return
		}

		resp.JoinURL = joinURL(appState.Cfg.PublicURL, resp.SessionID)

		ctx.JSON(resp)
	}
}

func GetSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		sessionID := ctx.Params().Get("id")

		snap, err := appState.SessionSvc.Snapshot(sessionID)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(dto.SessionStateResponse{
			SessionID: sessionID,
			State:     snap,
		})
	}
}

func SessionQRCode(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		sessionID := ctx.Params().Get("id")

		if _, err := appState.SessionSvc.Snapshot(sessionID); err != nil {
			writeError(ctx, err)
			return
		}

		png, err := qrcode.Encode(
			joinURL(appState.Cfg.PublicURL, sessionID),
			qrcode.Medium,
			QRCODE_SIZE,
		)
		if err != nil {
			zap.L().Error("生成二维码失败", zap.String("session_id", sessionID), zap.Error(err))
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(dto.ErrorResponse{Error: "生成二维码失败"})
			return
		}

		ctx.ContentType("image/png")
		ctx.Write(png)
	}
}
