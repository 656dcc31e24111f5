package session

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"undercover-be/internal/service/game"

	"go.uber.org/zap"
)

// 会话的两种模式：配置中和游戏中，同一时刻只有一个有效
type Mode string

const (
	MODE_CONFIGURING Mode = "Configuring"
	MODE_PLAYING     Mode = "Playing"
)

// 配置阶段的请求类型，游戏内请求见 game 包
const (
	REQ_ADD_NAME             = "AddName"
	REQ_REMOVE_NAME          = "RemoveName"
	REQ_EDIT_INDEX           = "EditIndex"
	REQ_EDIT_NAME            = "EditName"
	REQ_INCREMENT_UNDERCOVER = "IncrementUndercover"
	REQ_DECREMENT_UNDERCOVER = "DecrementUndercover"
	REQ_ENABLE_WHITE         = "EnableWhite"
	REQ_SET_WORDS            = "SetWords"
	REQ_CLEAR_WORDS          = "ClearWords"
	REQ_START_GAME           = "StartGame"

	// 游戏结束后确认，回到配置
	REQ_DONE = "Done"
)

type IndexRequest struct {
	Index int `json:"index"`
}

type EditNameRequest struct {
	Name string `json:"name"`
}

type EnableWhiteRequest struct {
	Enable bool `json:"enable"`
}

type SetWordsRequest struct {
	Citizen    string `json:"citizen"`
	Undercover string `json:"undercover"`
}

var (
	ErrWrongMode        = errors.New("当前模式不支持该请求")
	ErrGameNotOver      = errors.New("游戏尚未结束")
	ErrUnknownRequest   = errors.New("未知的请求类型")
	ErrMalformedRequest = errors.New("请求数据无效")
)

type ControllerOption func(*Controller)

// WithWordPool 设置开局时随机抽取的词库
func WithWordPool(pool []game.SecretWords) ControllerOption {
	return func(c *Controller) {
		c.wordPool = append([]game.SecretWords(nil), pool...)
	}
}

func WithRand(rng *rand.Rand) ControllerOption {
	return func(c *Controller) {
		c.rng = rng
	}
}

// Controller 把展示层的请求路由到当前模式，并在开局和确认结束时切换模式。
// 它不是并发安全的，由会话协程独占。
type Controller struct {
	mode   Mode
	setup  *Setup
	engine *game.Engine

	wordPool []game.SecretWords
	rng      *rand.Rand
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		mode:  MODE_CONFIGURING,
		setup: DefaultSetup(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Controller) Mode() Mode {
	return c.mode
}

// Setup 只在配置模式下非 nil
func (c *Controller) Setup() *Setup {
	return c.setup
}

// Engine 只在游戏模式下非 nil
func (c *Controller) Engine() *game.Engine {
	return c.engine
}

func (c *Controller) Handle(req game.RequestWrapper) error {
	switch c.mode {
	case MODE_CONFIGURING:
		return c.handleSetup(req)
	case MODE_PLAYING:
		return c.handleGame(req)
	default:
		return fmt.Errorf("%w: %s", ErrWrongMode, c.mode)
	}
}

func (c *Controller) handleSetup(req game.RequestWrapper) error {
	if game.IsGameRequest(req.ReqType) || req.ReqType == REQ_DONE {
		return fmt.Errorf("%w: 配置中不能处理 %s", ErrWrongMode, req.ReqType)
	}

	switch req.ReqType {
	case REQ_ADD_NAME:
		c.setup.AddName()

	case REQ_REMOVE_NAME:
		r := game.TryUnwrap[IndexRequest](req, REQ_REMOVE_NAME)
		if r == nil {
			return ErrMalformedRequest
		}
		c.setup.RemoveName(r.Index)

	case REQ_EDIT_INDEX:
		r := game.TryUnwrap[IndexRequest](req, REQ_EDIT_INDEX)
		if r == nil {
			return ErrMalformedRequest
		}
		c.setup.SetEditIndex(r.Index)

	case REQ_EDIT_NAME:
		r := game.TryUnwrap[EditNameRequest](req, REQ_EDIT_NAME)
		if r == nil {
			return ErrMalformedRequest
		}
		return c.setup.EditName(r.Name)

	case REQ_INCREMENT_UNDERCOVER:
		c.setup.IncrementUndercover()

	case REQ_DECREMENT_UNDERCOVER:
		c.setup.DecrementUndercover()

	case REQ_ENABLE_WHITE:
		r := game.TryUnwrap[EnableWhiteRequest](req, REQ_ENABLE_WHITE)
		if r == nil {
			return ErrMalformedRequest
		}
		c.setup.EnableWhite(r.Enable)

	case REQ_SET_WORDS:
		r := game.TryUnwrap[SetWordsRequest](req, REQ_SET_WORDS)
		if r == nil {
			return ErrMalformedRequest
		}
		return c.setup.SetWords(r.Citizen, r.Undercover)

	case REQ_CLEAR_WORDS:
		c.setup.ClearWords()

	case REQ_START_GAME:
		return c.StartGame()

	default:
		return fmt.Errorf("%w: %s", ErrUnknownRequest, req.ReqType)
	}

	return nil
}

func (c *Controller) handleGame(req game.RequestWrapper) error {
	if req.ReqType == REQ_DONE {
		return c.Acknowledge()
	}

	if !game.IsGameRequest(req.ReqType) {
		return fmt.Errorf("%w: 游戏中不能处理 %s", ErrWrongMode, req.ReqType)
	}

	ev, ok := game.UnwrapGameEvent(req)
	if !ok {
		return ErrMalformedRequest
	}

	// 当前阶段不接受的事件会被引擎忽略，不算错误
	c.engine.Handle(ev)

	return nil
}

// StartGame 用当前配置开局，失败时停留在配置模式
func (c *Controller) StartGame() error {
	if c.mode != MODE_CONFIGURING {
		return fmt.Errorf("%w: 游戏已经开始", ErrWrongMode)
	}

	engine, err := c.setup.NewEngine(
		game.WithWords(c.pickWords()),
		game.WithRand(c.rng),
	)
	if err != nil {
		zap.S().Warnf("开局失败：%v", err)
		return err
	}

	zap.S().Infof("开局：%d 名玩家，%d 卧底，白板 %v", len(c.setup.names), c.setup.undercover, c.setup.white)

	c.engine = engine
	c.setup = nil
	c.mode = MODE_PLAYING

	return nil
}

// Acknowledge 在游戏结束后回到配置模式，沿用本局的玩家名单
func (c *Controller) Acknowledge() error {
	if c.mode != MODE_PLAYING {
		return fmt.Errorf("%w: 没有进行中的游戏", ErrWrongMode)
	}

	if !c.engine.IsOver() {
		return ErrGameNotOver
	}

	c.setup = NewSetup(c.engine.PlayerNames())
	c.engine = nil
	c.mode = MODE_CONFIGURING

	return nil
}

func (c *Controller) pickWords() game.SecretWords {
	if words, ok := c.setup.Words(); ok {
		return words
	}

	if len(c.wordPool) == 0 {
		return game.DefaultWords
	}

	var i int
	if c.rng != nil {
		i = c.rng.IntN(len(c.wordPool))
	} else {
		i = rand.IntN(len(c.wordPool))
	}

	return c.wordPool[i]
}

type Snapshot struct {
	Mode  Mode               `json:"mode"`
	Setup *SetupSnapshot     `json:"setup,omitempty"`
	Game  *game.GameSnapshot `json:"game,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{Mode: c.mode}

	switch c.mode {
	case MODE_CONFIGURING:
		setup := c.setup.Snapshot()
		snap.Setup = &setup
	case MODE_PLAYING:
		g := c.engine.Snapshot()
		snap.Game = &g
	}

	return snap
}
