package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("玩家人数与身份配置不一致")

type Option func(*GameContext)

// WithRand 替换身份分配和首位发言者抽取所用的随机源
func WithRand(rng *rand.Rand) Option {
	return func(ctx *GameContext) {
		ctx.rng = rng
	}
}

func WithWords(words SecretWords) Option {
	return func(ctx *GameContext) {
		ctx.Words = words
	}
}

// Engine 是游戏状态机。它是同步的：每个事件在 Handle 返回前完整生效，
// 由持有它的会话独占，不需要加锁。
type Engine struct {
	ctx     *GameContext
	handler StageHandler
}

func NewEngine(
	names []string,
	citizenCount int,
	undercoverCount int,
	whiteEnabled bool,
	opts ...Option,
) (*Engine, error) {
	whiteCount := 0
	if whiteEnabled {
		whiteCount = 1
	}

	if citizenCount < 0 || undercoverCount < 0 {
		return nil, fmt.Errorf("%w: 身份数量不能为负数", ErrInvalidConfig)
	}

	if len(names) != citizenCount+undercoverCount+whiteCount {
		return nil, fmt.Errorf(
			"%w: %d 名玩家，但配置了 %d 个身份",
			ErrInvalidConfig,
			len(names),
			citizenCount+undercoverCount+whiteCount,
		)
	}

	// 首位发言者不能是白板，所以至少需要一名平民或卧底
	if citizenCount+undercoverCount == 0 {
		return nil, fmt.Errorf("%w: 至少需要一名平民或卧底", ErrInvalidConfig)
	}

	ctx := &GameContext{
		Words:     DefaultWords,
		Phase:     PHASE_REVEAL,
		Candidate: -1,
	}

	for _, opt := range opts {
		opt(ctx)
	}

	if err := ctx.Words.Validate(); err != nil {
		return nil, err
	}

	quota := map[Role]int{
		ROLE_CITIZEN:    citizenCount,
		ROLE_UNDERCOVER: undercoverCount,
		ROLE_WHITE:      whiteCount,
	}

	if err := assignRoles(ctx, names, quota); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	ctx.TurnStarter = ctx.drawTurnStarter(func(p *Player) bool {
		return p.Role() != ROLE_WHITE
	})

	e := &Engine{ctx: ctx}
	e.handler = e.newHandler(PHASE_REVEAL)
	e.handler.OnEnter(ctx)

	zap.L().Info(
		"新游戏已创建",
		zap.Int("players", len(names)),
		zap.Int("citizen", citizenCount),
		zap.Int("undercover", undercoverCount),
		zap.Bool("white", whiteEnabled),
	)

	return e, nil
}

// Handle 应用一个事件，返回事件是否生效。
// 当前阶段不接受的事件以及游戏结束后的任何事件都会被忽略。
func (e *Engine) Handle(ev Event) bool {
	if ev == nil {
		return false
	}

	if e.ctx.Over {
		zap.L().Debug(
			"游戏已结束，忽略事件",
			zap.String("event", ev.EventType()),
		)
		return false
	}

	if err := e.handler.OnHandle(e.ctx, ev); err != nil {
		zap.L().Debug(
			"处理事件失败",
			zap.Error(err),
			zap.String("phase", string(e.handler.Phase())),
			zap.String("event", ev.EventType()),
		)
		return false
	}

	// 检查阶段是否发生变化
	if e.ctx.Phase != e.handler.Phase() {
		e.switchStage()
		e.handler.OnEnter(e.ctx)
	}

	return true
}

func (e *Engine) switchStage() {
	e.handler.OnExit(e.ctx)

	zap.L().Debug(
		"切换游戏阶段",
		zap.String("from", string(e.handler.Phase())),
		zap.String("to", string(e.ctx.Phase)),
	)

	e.handler = e.newHandler(e.ctx.Phase)
}

func (e *Engine) newHandler(phase Phase) StageHandler {
	var handler StageHandler

	switch phase {
	case PHASE_REVEAL:
		handler = NewRevealStageHandler()
	case PHASE_POLL:
		handler = NewPollStageHandler()
	case PHASE_GUESS:
		handler = NewGuessStageHandler()
	default:
		// 阶段只会由处理器设置为上面三种之一
		panic(fmt.Sprintf("未知的游戏阶段: %q", phase))
	}

	handler.SetOnSwitch(func(nextPhase Phase) {
		e.ctx.Phase = nextPhase
	})

	return handler
}

func (e *Engine) Phase() Phase {
	return e.ctx.Phase
}

func (e *Engine) IsOver() bool {
	return e.ctx.Over
}

// Winner 在游戏结束前返回 false
func (e *Engine) Winner() (Role, bool) {
	return e.ctx.Winner, e.ctx.Over
}

func (e *Engine) Words() SecretWords {
	return e.ctx.Words
}

// Players 返回座位表的副本
func (e *Engine) Players() []Player {
	players := make([]Player, 0, len(e.ctx.Players))
	for _, p := range e.ctx.Players {
		players = append(players, *p)
	}

	return players
}

func (e *Engine) Player(index int) (Player, bool) {
	if !e.ctx.validSeat(index) {
		return Player{}, false
	}

	return *e.ctx.Players[index], true
}

// PlayerNames 按座位顺序返回名字，用于结束后重新配置下一局
func (e *Engine) PlayerNames() []string {
	names := make([]string, 0, len(e.ctx.Players))
	for _, p := range e.ctx.Players {
		names = append(names, p.Name())
	}

	return names
}

// CurrentPlayer 返回发词阶段正在查看词语的玩家
func (e *Engine) CurrentPlayer() (Player, bool) {
	if e.ctx.Phase != PHASE_REVEAL {
		return Player{}, false
	}

	return e.Player(e.ctx.RevealCursor)
}

func (e *Engine) RevealCursor() int {
	return e.ctx.RevealCursor
}

func (e *Engine) RevealShown() bool {
	return e.ctx.RevealShown
}

// Candidate 返回投票阶段待确认淘汰的座位
func (e *Engine) Candidate() (int, bool) {
	if e.ctx.Candidate < 0 {
		return -1, false
	}

	return e.ctx.Candidate, true
}

func (e *Engine) Confirming() bool {
	return e.ctx.Confirming
}

func (e *Engine) TurnStarter() int {
	return e.ctx.TurnStarter
}

func (e *Engine) GuessDraft() string {
	return e.ctx.GuessDraft
}

// SubmittedGuess 返回白板提交过的猜词，未提交时返回 false
func (e *Engine) SubmittedGuess() (string, bool) {
	if e.ctx.Guess == nil {
		return "", false
	}

	return *e.ctx.Guess, true
}
