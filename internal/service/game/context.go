package game

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

// GameContext 是一局游戏的全部状态，只由 Engine 和各阶段处理器修改
type GameContext struct {
	Players []*Player
	Words   SecretWords
	Phase   Phase

	// 发词阶段的进度
	RevealCursor int
	RevealShown  bool

	// 本轮开始发言的座位
	TurnStarter int

	// 投票阶段待确认淘汰的座位，-1 表示没有
	Candidate  int
	Confirming bool

	// GuessDraft 是白板正在输入的猜词，Guess 是已经提交的猜词（未提交时为 nil）
	GuessDraft string
	Guess      *string

	Over   bool
	Winner Role

	rng *rand.Rand
}

func (gc *GameContext) intN(n int) int {
	if gc.rng != nil {
		return gc.rng.IntN(n)
	}

	return rand.IntN(n)
}

func (gc *GameContext) validSeat(index int) bool {
	return index >= 0 && index < len(gc.Players)
}

func (gc *GameContext) CountAlive() int {
	count := 0
	for _, p := range gc.Players {
		if p.Alive() {
			count++
		}
	}

	return count
}

func (gc *GameContext) IsUndercoverAlive() bool {
	for _, p := range gc.Players {
		if p.Alive() && p.Role() == ROLE_UNDERCOVER {
			return true
		}
	}

	return false
}

func (gc *GameContext) HasWhite() bool {
	for _, p := range gc.Players {
		if p.Role() == ROLE_WHITE {
			return true
		}
	}

	return false
}

// WhiteResolved 表示白板已经不会再影响胜负：本局没有白板，或者白板已经提交过猜词
func (gc *GameContext) WhiteResolved() bool {
	return !gc.HasWhite() || gc.Guess != nil
}

// drawTurnStarter 在所有座位中均匀抽取，直到抽中的座位被 accept 接受
func (gc *GameContext) drawTurnStarter(accept func(*Player) bool) int {
	seat := gc.intN(len(gc.Players))
	for !accept(gc.Players[seat]) {
		seat = gc.intN(len(gc.Players))
	}

	return seat
}

// finish 只会生效一次，之后胜者不再改变
func (gc *GameContext) finish(winner Role) {
	if gc.Over {
		return
	}

	gc.Over = true
	gc.Winner = winner
	gc.Confirming = false

	zap.L().Info(
		"游戏结束",
		zap.String("winner", string(winner)),
		zap.Int("alive", gc.CountAlive()),
	)
}
