package service

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"undercover-be/internal/service/game"
	"undercover-be/internal/service/session"

	"github.com/google/uuid"
)

func genID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// 会话协程接收的请求，每次只设置其中一个字段
type SessionRequestAction struct {
	JoinReq     *joinSessionRequest
	LeaveReq    *leaveSessionRequest
	ActionReq   *actionRequest
	SnapshotReq chan session.Snapshot
}

type joinSessionRequest struct {
	ClientID string
	RespCh   chan game.ResponseWrapper
}

type leaveSessionRequest struct {
	ClientID string
}

type actionRequest struct {
	ClientID string
	Wrapper  game.RequestWrapper
}

// sessionHandle 是服务持有的会话句柄，控制器本身只存在于会话协程中
type sessionHandle struct {
	id string

	reqCh chan SessionRequestAction
	// 由服务关闭，通知会话协程退出
	quitCh chan struct{}
	// 会话协程退出后关闭
	doneCh chan struct{}

	lastActive atomic.Int64
	clients    atomic.Int32
}

func newSessionHandle(id string) *sessionHandle {
	h := &sessionHandle{
		id:     id,
		reqCh:  make(chan SessionRequestAction),
		quitCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	h.touch(time.Now())

	return h
}

func (h *sessionHandle) touch(now time.Time) {
	h.lastActive.Store(now.UnixNano())
}

// isIdle 表示会话没有连接的客户端，并且超过 ttl 没有任何请求
func (h *sessionHandle) isIdle(now time.Time, ttl time.Duration) bool {
	if h.clients.Load() > 0 {
		return false
	}

	return now.Sub(time.Unix(0, h.lastActive.Load())) > ttl
}

// NewControllerFactory 为每个会话创建控制器。seed 非 0 时每个会话得到
// 独立且可复现的随机源（*rand.Rand 不能在会话之间共享）。
func NewControllerFactory(pool []game.SecretWords, seed uint64) func() *session.Controller {
	var counter atomic.Uint64

	return func() *session.Controller {
		opts := []session.ControllerOption{
			session.WithWordPool(pool),
		}

		if seed != 0 {
			stream := counter.Add(1)
			opts = append(opts, session.WithRand(rand.New(rand.NewPCG(seed, stream))))
		}

		return session.NewController(opts...)
	}
}
