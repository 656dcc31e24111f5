package game

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// 游戏分为 3 个阶段，分别是：
// 1. 发词阶段（Reveal）：按座位顺序逐个查看自己的词语
// 2. 投票阶段（Poll）：提名并确认淘汰一名玩家
// 3. 猜词阶段（Guess）：白板被淘汰后猜测平民词
// 游戏结束不是一个阶段，而是 GameContext.Over 标记，投票和猜词之后都可能进入
type Phase string

const (
	PHASE_REVEAL Phase = "Reveal"
	PHASE_POLL   Phase = "Poll"
	PHASE_GUESS  Phase = "Guess"
)

// 低于该存活人数时触发人数类胜负判定
const LOW_POPULATION = 3

// 阶段不接受的事件会被忽略，该错误只用于日志
var ErrEventIgnored = errors.New("事件被忽略")

type StageHandler interface {
	Phase() Phase

	OnEnter(ctx *GameContext)
	OnHandle(ctx *GameContext, ev Event) error
	OnExit(ctx *GameContext)

	SetOnSwitch(func(nextPhase Phase))
}

func ignored(phase Phase, ev Event) error {
	return fmt.Errorf("%w: %s 阶段不处理 %s", ErrEventIgnored, phase, ev.EventType())
}

// 按 RoleOrder 均匀抽取身份类别，类别仍有名额时绑定给下一个名字，否则重抽。
// 名额耗尽的类别依旧参与抽取，所以每次抽取的有效概率会随进度变化。
func assignRoles(ctx *GameContext, names []string, quota map[Role]int) error {
	players := make([]*Player, 0, len(names))

	for len(players) < len(names) {
		role := RoleOrder[ctx.intN(len(RoleOrder))]
		if quota[role] <= 0 {
			continue
		}

		player, err := NewPlayer(names[len(players)], role)
		if err != nil {
			return err
		}

		quota[role]--
		players = append(players, player)
	}

	ctx.Players = players

	return nil
}

// evaluateWinner 按顺序检查胜负规则，第一条命中的规则生效
func evaluateWinner(ctx *GameContext) (Role, bool) {
	// 白板猜中平民词
	if ctx.Guess != nil && ctx.Words.Matches(*ctx.Guess) {
		return ROLE_WHITE, true
	}

	alive := ctx.CountAlive()
	undercoverAlive := ctx.IsUndercoverAlive()
	resolved := ctx.WhiteResolved()

	if !undercoverAlive && resolved {
		return ROLE_CITIZEN, true
	}

	if undercoverAlive && alive < LOW_POPULATION && resolved {
		return ROLE_UNDERCOVER, true
	}

	// 人数过少且白板从未猜词
	if alive < LOW_POPULATION && !resolved {
		return ROLE_WHITE, true
	}

	return "", false
}

func judge(ctx *GameContext) {
	if winner, ok := evaluateWinner(ctx); ok {
		ctx.finish(winner)
	}
}

// 发词阶段处理器
type revealStageHandler struct {
	onSwitch func(Phase)
}

func NewRevealStageHandler() *revealStageHandler {
	return &revealStageHandler{}
}

func (rsh *revealStageHandler) Phase() Phase {
	return PHASE_REVEAL
}

func (rsh *revealStageHandler) OnEnter(ctx *GameContext) {
	ctx.RevealShown = false

	zap.L().Debug(
		"进入发词阶段",
		zap.Int("players", len(ctx.Players)),
		zap.Int("cursor", ctx.RevealCursor),
	)
}

func (rsh *revealStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	switch ev.(type) {
	case RevealEvent:
		ctx.RevealShown = true
		return nil

	case AdvanceEvent:
		ctx.RevealShown = false
		ctx.RevealCursor++

		// 所有人都看过词语，进入投票阶段
		if ctx.RevealCursor >= len(ctx.Players) {
			rsh.onSwitch(PHASE_POLL)
		}

		return nil
	}

	return ignored(PHASE_REVEAL, ev)
}

func (rsh *revealStageHandler) OnExit(ctx *GameContext) {
	ctx.RevealShown = false
}

func (rsh *revealStageHandler) SetOnSwitch(onSwitch func(Phase)) {
	rsh.onSwitch = onSwitch
}

// 投票阶段处理器
type pollStageHandler struct {
	onSwitch func(Phase)
}

func NewPollStageHandler() *pollStageHandler {
	return &pollStageHandler{}
}

func (psh *pollStageHandler) Phase() Phase {
	return PHASE_POLL
}

func (psh *pollStageHandler) OnEnter(ctx *GameContext) {
	ctx.Candidate = -1
	ctx.Confirming = false

	zap.L().Debug(
		"进入投票阶段",
		zap.Int("alive", ctx.CountAlive()),
		zap.Int("turn_starter", ctx.TurnStarter),
	)
}

func (psh *pollStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	switch ev := ev.(type) {
	case NominateEvent:
		if !ctx.validSeat(ev.Index) {
			return fmt.Errorf("%w: 座位 %d 不存在", ErrEventIgnored, ev.Index)
		}

		if !ctx.Players[ev.Index].Alive() {
			return fmt.Errorf("%w: 座位 %d 已被淘汰", ErrEventIgnored, ev.Index)
		}

		ctx.Candidate = ev.Index
		ctx.Confirming = true

		return nil

	case ConfirmEvent:
		if !ctx.Confirming {
			return fmt.Errorf("%w: 没有待确认的提名", ErrEventIgnored)
		}

		if !ev.Decision {
			ctx.Candidate = -1
			ctx.Confirming = false
			return nil
		}

		psh.eliminate(ctx)

		return nil
	}

	return ignored(PHASE_POLL, ev)
}

func (psh *pollStageHandler) eliminate(ctx *GameContext) {
	eliminated := ctx.Players[ctx.Candidate]
	eliminated.SetAlive(false)

	ctx.Candidate = -1
	ctx.Confirming = false

	zap.L().Info(
		"玩家被淘汰",
		zap.String("player", eliminated.Name()),
		zap.String("role", string(eliminated.Role())),
		zap.Int("alive", ctx.CountAlive()),
	)

	judge(ctx)
	if ctx.Over {
		return
	}

	// 游戏未结束时，白板出局后获得一次猜词机会
	if eliminated.Role() == ROLE_WHITE {
		psh.onSwitch(PHASE_GUESS)
	}

	// 重新抽取下一轮的首位发言者。所有出局的座位都会被拒绝，而不只是出局的白板，
	// 这样首位发言者始终是存活玩家；存活的白板仍然可以被抽中
	ctx.TurnStarter = ctx.drawTurnStarter(func(p *Player) bool {
		return p.Alive()
	})
}

func (psh *pollStageHandler) OnExit(ctx *GameContext) {
	ctx.Confirming = false
}

func (psh *pollStageHandler) SetOnSwitch(onSwitch func(Phase)) {
	psh.onSwitch = onSwitch
}

// 猜词阶段处理器
type guessStageHandler struct {
	onSwitch func(Phase)
}

func NewGuessStageHandler() *guessStageHandler {
	return &guessStageHandler{}
}

func (gsh *guessStageHandler) Phase() Phase {
	return PHASE_GUESS
}

func (gsh *guessStageHandler) OnEnter(ctx *GameContext) {
	zap.L().Debug("进入猜词阶段")
}

func (gsh *guessStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	switch ev := ev.(type) {
	case EditGuessEvent:
		ctx.GuessDraft = ev.Text
		return nil

	case SubmitGuessEvent:
		guess := ctx.GuessDraft
		ctx.Guess = &guess

		zap.L().Info("白板提交猜词", zap.String("guess", guess))

		judge(ctx)

		// 无论是否猜中都回到投票阶段，调用方需自行检查是否结束
		gsh.onSwitch(PHASE_POLL)

		return nil
	}

	return ignored(PHASE_GUESS, ev)
}

func (gsh *guessStageHandler) OnExit(ctx *GameContext) {
}

func (gsh *guessStageHandler) SetOnSwitch(onSwitch func(Phase)) {
	gsh.onSwitch = onSwitch
}
