package service

import (
	"errors"
	"sync"
	"time"

	"undercover-be/internal/service/dto"
	"undercover-be/internal/service/game"
	"undercover-be/internal/service/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 服务端发送的响应类型
const (
	RESP_JOIN_SESSION  = "JoinSession"
	RESP_SESSION_STATE = "SessionState"
)

const (
	DEFAULT_SESSION_TTL      = 30 * time.Minute
	DEFAULT_CLEANUP_INTERVAL = time.Minute
	REQUEST_TIMEOUT          = 5 * time.Second
)

var (
	ErrSessionNotFound = errors.New("会话不存在")
	ErrSessionBusy     = errors.New("会话繁忙，请稍后再试")
)

type SessionService struct {
	state *sessionServiceState

	newController   func() *session.Controller
	ttl             time.Duration
	cleanupInterval time.Duration
}

type sessionServiceState struct {
	mu sync.RWMutex

	// 从会话 ID 到会话句柄的映射
	sessions map[string]*sessionHandle

	cleanUpDone chan struct{}
	closeOnce   sync.Once
}

type SessionServiceOption func(*SessionService)

func WithSessionTTL(ttl time.Duration) SessionServiceOption {
	return func(ss *SessionService) {
		if ttl > 0 {
			ss.ttl = ttl
		}
	}
}

func WithCleanupInterval(interval time.Duration) SessionServiceOption {
	return func(ss *SessionService) {
		if interval > 0 {
			ss.cleanupInterval = interval
		}
	}
}

func WithControllerFactory(factory func() *session.Controller) SessionServiceOption {
	return func(ss *SessionService) {
		ss.newController = factory
	}
}

func NewSessionService(opts ...SessionServiceOption) *SessionService {
	ss := &SessionService{
		state: &sessionServiceState{
			sessions:    make(map[string]*sessionHandle),
			cleanUpDone: make(chan struct{}),
		},
		newController:   func() *session.Controller { return session.NewController() },
		ttl:             DEFAULT_SESSION_TTL,
		cleanupInterval: DEFAULT_CLEANUP_INTERVAL,
	}

	for _, opt := range opts {
		opt(ss)
	}

	// 启动一个 goroutine 定期清理闲置的会话
	go ss.startCleanupLoop()

	return ss
}

func (ss *SessionService) startCleanupLoop() {
	ticker := time.NewTicker(ss.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ss.state.cleanUpDone:
			return

		case now := <-ticker.C:
			ss.reapIdle(now)
		}
	}
}

// reapIdle 关闭所有闲置的会话，返回关闭的数量
func (ss *SessionService) reapIdle(now time.Time) int {
	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	reaped := 0

	for id, h := range ss.state.sessions {
		if !h.isIdle(now, ss.ttl) {
			continue
		}

		zap.S().Infof("会话 %s 闲置超时，开始清理", id)

		close(h.quitCh)
		delete(ss.state.sessions, id)
		reaped++
	}

	return reaped
}

// Close 停止清理协程并关闭所有会话
func (ss *SessionService) Close() {
	ss.state.closeOnce.Do(func() {
		close(ss.state.cleanUpDone)

		ss.state.mu.Lock()
		defer ss.state.mu.Unlock()

		for id, h := range ss.state.sessions {
			close(h.quitCh)
			delete(ss.state.sessions, id)
		}
	})
}

func (ss *SessionService) CreateSession() (dto.CreateSessionResponse, error) {
	sessionID := uuid.New().String()[:8]

	h := newSessionHandle(sessionID)
	controller := ss.newController()

	// 会话协程启动前读取初始状态，之后控制器只由该协程访问
	initial := controller.Snapshot()

	ss.state.mu.Lock()
	ss.state.sessions[sessionID] = h
	ss.state.mu.Unlock()

	// 每个会话由独立的 goroutine 串行处理请求
	go ss.sessionLoop(h, controller)

	zap.S().Infof("会话 %s 已创建", sessionID)

	return dto.CreateSessionResponse{
		SessionID: sessionID,
		State:     initial,
	}, nil
}

func (ss *SessionService) lookup(sessionID string) (*sessionHandle, error) {
	if sessionID == "" {
		return nil, errors.New("会话 ID 不能为空")
	}

	ss.state.mu.RLock()
	defer ss.state.mu.RUnlock()

	h := ss.state.sessions[sessionID]
	if h == nil {
		return nil, ErrSessionNotFound
	}

	return h, nil
}

func (ss *SessionService) send(h *sessionHandle, action SessionRequestAction) error {
	reqTimer := time.NewTimer(REQUEST_TIMEOUT)
	defer reqTimer.Stop()

	select {
	case h.reqCh <- action:
		return nil

	case <-h.doneCh:
		return ErrSessionNotFound

	case <-reqTimer.C:
		zap.S().Warnf("会话 %s 无法及时处理请求", h.id)
		return ErrSessionBusy
	}
}

// Join 注册一个展示端，返回它的客户端 ID。
// 加入确认和之后的状态广播都写入 respCh，离开或会话关闭时 respCh 被关闭。
func (ss *SessionService) Join(sessionID string, respCh chan game.ResponseWrapper) (string, error) {
	h, err := ss.lookup(sessionID)
	if err != nil {
		return "", err
	}

	clientID := genID()

	err = ss.send(h, SessionRequestAction{
		JoinReq: &joinSessionRequest{
			ClientID: clientID,
			RespCh:   respCh,
		},
	})
	if err != nil {
		return "", err
	}

	zap.S().Debugf("会话 %s 收到加入请求：%s", sessionID, clientID)

	return clientID, nil
}

func (ss *SessionService) Leave(sessionID, clientID string) {
	h, err := ss.lookup(sessionID)
	if err != nil {
		return
	}

	if err := ss.send(h, SessionRequestAction{LeaveReq: &leaveSessionRequest{ClientID: clientID}}); err != nil {
		zap.S().Warnf("会话 %s 处理 %s 离开失败：%v", sessionID, clientID, err)
	}
}

// Dispatch 把展示端的请求交给会话协程，处理结果通过响应通道返回
func (ss *SessionService) Dispatch(sessionID, clientID string, wrapper game.RequestWrapper) error {
	h, err := ss.lookup(sessionID)
	if err != nil {
		return err
	}

	return ss.send(h, SessionRequestAction{
		ActionReq: &actionRequest{
			ClientID: clientID,
			Wrapper:  wrapper,
		},
	})
}

func (ss *SessionService) Snapshot(sessionID string) (session.Snapshot, error) {
	h, err := ss.lookup(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}

	replyCh := make(chan session.Snapshot, 1)
	if err := ss.send(h, SessionRequestAction{SnapshotReq: replyCh}); err != nil {
		return session.Snapshot{}, err
	}

	select {
	case snap := <-replyCh:
		return snap, nil
	case <-h.doneCh:
		return session.Snapshot{}, ErrSessionNotFound
	}
}

func (ss *SessionService) sessionLoop(h *sessionHandle, controller *session.Controller) {
	clients := make(map[string]chan game.ResponseWrapper)

	defer func() {
		for id, ch := range clients {
			close(ch)
			delete(clients, id)
		}

		close(h.doneCh)

		zap.S().Infof("会话 %s 协程退出", h.id)
	}()

	for {
		var req SessionRequestAction

		select {
		case <-h.quitCh:
			zap.S().Infof("会话 %s 收到关闭指令", h.id)
			return
		case req = <-h.reqCh:
		}

		h.touch(time.Now())

		switch {
		case req.JoinReq != nil:
			clients[req.JoinReq.ClientID] = req.JoinReq.RespCh
			h.clients.Store(int32(len(clients)))

			unicast(req.JoinReq.RespCh, game.WrapResponse(
				RESP_JOIN_SESSION,
				dto.JoinSessionResponse{
					SessionID: h.id,
					ClientID:  req.JoinReq.ClientID,
					State:     controller.Snapshot(),
				},
			))

			zap.S().Infof("会话 %s 客户端 %s 加入", h.id, req.JoinReq.ClientID)

		case req.LeaveReq != nil:
			if ch, ok := clients[req.LeaveReq.ClientID]; ok {
				close(ch)
				delete(clients, req.LeaveReq.ClientID)
				h.clients.Store(int32(len(clients)))

				zap.S().Infof("会话 %s 客户端 %s 离开", h.id, req.LeaveReq.ClientID)
			}

		case req.ActionReq != nil:
			wrapper := req.ActionReq.Wrapper

			if err := controller.Handle(wrapper); err != nil {
				zap.L().Debug(
					"处理请求失败",
					zap.String("session_id", h.id),
					zap.String("request_type", wrapper.ReqType),
					zap.Error(err),
				)

				if ch, ok := clients[req.ActionReq.ClientID]; ok {
					unicast(ch, game.WrapErrResponse(err.Error()))
				}

				continue
			}

			broadcast(clients, game.WrapResponse(
				RESP_SESSION_STATE,
				dto.SessionStateResponse{
					SessionID: h.id,
					State:     controller.Snapshot(),
				},
			))

		case req.SnapshotReq != nil:
			req.SnapshotReq <- controller.Snapshot()
		}
	}
}

func unicast(ch chan game.ResponseWrapper, resp game.ResponseWrapper) {
	select {
	case ch <- resp:
	default:
		zap.L().Warn(
			"发送响应失败：客户端响应通道已满",
			zap.String("response_type", resp.RespType),
		)
	}
}

func broadcast(clients map[string]chan game.ResponseWrapper, resp game.ResponseWrapper) {
	for id, ch := range clients {
		select {
		case ch <- resp:
			zap.L().Debug(
				"成功发送广播响应",
				zap.String("client_id", id),
				zap.String("response_type", resp.RespType),
			)
		default:
			zap.L().Warn(
				"发送广播响应失败：客户端响应通道已满",
				zap.String("client_id", id),
			)
		}
	}
}
