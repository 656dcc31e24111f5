package game

// PlayerView 是展示层看到的玩家信息。
// 身份只在玩家出局或游戏结束后公开。
type PlayerView struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Alive bool   `json:"alive"`

	// 身份和展示名称在公开后才有值
	Role     Role   `json:"role,omitempty"`
	RoleName string `json:"role_name,omitempty"`
}

// RevealView 描述发词阶段当前轮到的玩家，只有在 Shown 时才带上词语
type RevealView struct {
	Player  PlayerView `json:"player"`
	Shown   bool       `json:"shown"`
	IsWhite bool       `json:"is_white,omitempty"`
	Word    string     `json:"word,omitempty"`
}

type GameSnapshot struct {
	Phase   Phase        `json:"phase"`
	Players []PlayerView `json:"players"`

	Reveal *RevealView `json:"reveal,omitempty"`

	TurnStarter int  `json:"turn_starter"`
	Candidate   *int `json:"candidate,omitempty"`
	Confirming  bool `json:"confirming"`

	GuessDraft string `json:"guess_draft,omitempty"`

	Over       bool         `json:"over"`
	Winner     Role         `json:"winner,omitempty"`
	WinnerName string       `json:"winner_name,omitempty"`
	Words      *SecretWords `json:"words,omitempty"`
}

func (e *Engine) Snapshot() GameSnapshot {
	ctx := e.ctx

	snap := GameSnapshot{
		Phase:       ctx.Phase,
		Players:     make([]PlayerView, 0, len(ctx.Players)),
		TurnStarter: ctx.TurnStarter,
		Confirming:  ctx.Confirming,
		GuessDraft:  ctx.GuessDraft,
		Over:        ctx.Over,
	}

	for seat, p := range ctx.Players {
		snap.Players = append(snap.Players, e.playerView(seat, p))
	}

	if ctx.Phase == PHASE_REVEAL && ctx.validSeat(ctx.RevealCursor) {
		p := ctx.Players[ctx.RevealCursor]

		reveal := &RevealView{
			Player: e.playerView(ctx.RevealCursor, p),
			Shown:  ctx.RevealShown,
		}

		if ctx.RevealShown {
			word, ok := ctx.Words.WordFor(p.Role())
			reveal.IsWhite = !ok
			reveal.Word = word
		}

		snap.Reveal = reveal
	}

	if candidate, ok := e.Candidate(); ok {
		snap.Candidate = &candidate
	}

	if ctx.Over {
		words := ctx.Words
		snap.Winner = ctx.Winner
		snap.WinnerName = ctx.Winner.DisplayName()
		snap.Words = &words
	}

	return snap
}

func (e *Engine) playerView(seat int, p *Player) PlayerView {
	view := PlayerView{
		Seat:  seat,
		Name:  p.Name(),
		Alive: p.Alive(),
	}

	if !p.Alive() || e.ctx.Over {
		view.Role = p.Role()
		view.RoleName = p.Role().DisplayName()
	}

	return view
}
