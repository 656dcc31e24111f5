package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testNames(n int) []string {
	names := make([]string, 0, n)
	for i := range n {
		names = append(names, fmt.Sprintf("Player%d", i+1))
	}

	return names
}

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed*31+7))
}

func newTestEngine(t *testing.T, citizen, undercover int, white bool, seed uint64) *Engine {
	t.Helper()

	n := citizen + undercover
	if white {
		n++
	}

	e, err := NewEngine(testNames(n), citizen, undercover, white, WithRand(seededRand(seed)))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	return e
}

func finishReveal(t *testing.T, e *Engine) {
	t.Helper()

	for range len(e.Players()) {
		e.Handle(RevealEvent{})
		e.Handle(AdvanceEvent{})
	}

	if e.Phase() != PHASE_POLL {
		t.Fatalf("want phase %s after reveal, got %s", PHASE_POLL, e.Phase())
	}
}

func seatsOf(e *Engine, role Role) []int {
	var seats []int
	for i, p := range e.Players() {
		if p.Role() == role {
			seats = append(seats, i)
		}
	}

	return seats
}

func eliminate(t *testing.T, e *Engine, seat int) {
	t.Helper()

	if !e.Handle(NominateEvent{Index: seat}) {
		t.Fatalf("nominating seat %d was ignored", seat)
	}

	if !e.Handle(ConfirmEvent{Decision: true}) {
		t.Fatalf("confirming seat %d was ignored", seat)
	}
}

func TestNewEngine_RejectsQuotaMismatch(t *testing.T) {
	cases := []struct {
		name       string
		names      []string
		citizen    int
		undercover int
		white      bool
	}{
		{"too many names", testNames(4), 2, 1, false},
		{"too few names", testNames(3), 2, 1, true},
		{"negative quota", testNames(3), 4, -1, false},
		{"empty roster", nil, 0, 0, false},
		{"white only", testNames(1), 0, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEngine(tc.names, tc.citizen, tc.undercover, tc.white)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("want ErrInvalidConfig, got: %v", err)
			}
		})
	}
}

func TestNewEngine_RejectsInvalidNameAndWords(t *testing.T) {
	_, err := NewEngine([]string{"Alice", "", "Carol"}, 2, 1, false)
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidName) {
		t.Fatalf("want ErrInvalidConfig wrapping ErrInvalidName, got: %v", err)
	}

	_, err = NewEngine(testNames(3), 2, 1, false, WithWords(SecretWords{Citizen: "Messi"}))
	if !errors.Is(err, ErrInvalidWords) {
		t.Fatalf("want ErrInvalidWords, got: %v", err)
	}
}

func TestNewEngine_HonorsQuotas(t *testing.T) {
	configs := []struct {
		citizen    int
		undercover int
		white      bool
	}{
		{2, 1, false},
		{3, 1, true},
		{2, 1, true},
		{5, 2, true},
		{6, 2, false},
		{1, 0, false},
		{0, 3, true},
	}

	for _, cfg := range configs {
		for seed := range uint64(20) {
			e := newTestEngine(t, cfg.citizen, cfg.undercover, cfg.white, seed)

			wantWhite := 0
			if cfg.white {
				wantWhite = 1
			}

			got := map[Role]int{}
			for _, p := range e.Players() {
				got[p.Role()]++
			}

			want := map[Role]int{
				ROLE_CITIZEN:    cfg.citizen,
				ROLE_UNDERCOVER: cfg.undercover,
				ROLE_WHITE:      wantWhite,
			}

			for role, count := range want {
				if got[role] != count {
					t.Fatalf("config %+v seed %d: want %d %s got %d", cfg, seed, count, role, got[role])
				}
			}
		}
	}
}

func TestNewEngine_KeepsNameOrder(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol", "Dave"}

	e, err := NewEngine(names, 2, 1, true)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	if diff := cmp.Diff(names, e.PlayerNames()); diff != "" {
		t.Fatalf("seat order changed (-want +got)\n%s", diff)
	}
}

func TestNewEngine_SameSeedSameAssignment(t *testing.T) {
	a := newTestEngine(t, 4, 2, true, 42)
	b := newTestEngine(t, 4, 2, true, 42)

	if diff := cmp.Diff(a.Snapshot(), b.Snapshot()); diff != "" {
		t.Fatalf("snapshots differ (-a +b)\n%s", diff)
	}

	for i, p := range a.Players() {
		if q, _ := b.Player(i); q.Role() != p.Role() {
			t.Fatalf("seat %d: roles differ %s vs %s", i, p.Role(), q.Role())
		}

		if a.TurnStarter() != b.TurnStarter() {
			t.Fatalf("turn starters differ %d vs %d", a.TurnStarter(), b.TurnStarter())
		}
	}
}

func TestNewEngine_WhiteNeverInitialTurnStarter(t *testing.T) {
	for seed := range uint64(200) {
		e := newTestEngine(t, 1, 1, true, seed)

		starter, ok := e.Player(e.TurnStarter())
		if !ok {
			t.Fatalf("seed %d: turn starter %d out of range", seed, e.TurnStarter())
		}

		if starter.Role() == ROLE_WHITE {
			t.Fatalf("seed %d: white chosen as initial turn starter", seed)
		}
	}
}

func TestEngine_RevealVisitsEverySeatInOrder(t *testing.T) {
	e := newTestEngine(t, 3, 1, true, 7)

	for seat := range 5 {
		if e.Phase() != PHASE_REVEAL {
			t.Fatalf("left reveal early at seat %d", seat)
		}

		current, ok := e.CurrentPlayer()
		if !ok || current.Name() != fmt.Sprintf("Player%d", seat+1) {
			t.Fatalf("want seat %d to reveal, got %+v", seat, current)
		}

		if e.Snapshot().Reveal.Word != "" {
			t.Fatalf("word visible before reveal requested")
		}

		e.Handle(RevealEvent{})
		if !e.RevealShown() {
			t.Fatalf("reveal flag not set")
		}

		reveal := e.Snapshot().Reveal
		if reveal.Player.Seat != seat {
			t.Fatalf("want reveal seat %d got %d", seat, reveal.Player.Seat)
		}

		switch current.Role() {
		case ROLE_WHITE:
			if !reveal.IsWhite || reveal.Word != "" {
				t.Fatalf("white should see no word, got %+v", reveal)
			}
		case ROLE_CITIZEN:
			if reveal.Word != DefaultWords.Citizen {
				t.Fatalf("citizen should see %q got %q", DefaultWords.Citizen, reveal.Word)
			}
		case ROLE_UNDERCOVER:
			if reveal.Word != DefaultWords.Undercover {
				t.Fatalf("undercover should see %q got %q", DefaultWords.Undercover, reveal.Word)
			}
		}

		e.Handle(AdvanceEvent{})
		if e.RevealShown() {
			t.Fatalf("advance should clear the reveal flag")
		}
	}

	if e.Phase() != PHASE_POLL {
		t.Fatalf("want phase %s got %s", PHASE_POLL, e.Phase())
	}

	if e.Snapshot().Reveal != nil {
		t.Fatalf("reveal view should be gone after reveal phase")
	}

	// 发词阶段结束后不会再回来
	if e.Handle(AdvanceEvent{}) || e.Handle(RevealEvent{}) {
		t.Fatalf("reveal events should be ignored during poll")
	}
}

func TestEngine_OutOfPhaseEventsAreIgnored(t *testing.T) {
	e := newTestEngine(t, 3, 1, true, 3)
	before := e.Snapshot()

	events := []Event{
		SubmitGuessEvent{},
		EditGuessEvent{Text: "Messi"},
		NominateEvent{Index: 0},
		ConfirmEvent{Decision: true},
		nil,
	}

	for _, ev := range events {
		if e.Handle(ev) {
			t.Fatalf("event %#v should be ignored during reveal", ev)
		}
	}

	if diff := cmp.Diff(before, e.Snapshot()); diff != "" {
		t.Fatalf("ignored events changed state (-want +got)\n%s", diff)
	}
}

func TestEngine_NominateIsIdempotent(t *testing.T) {
	e := newTestEngine(t, 3, 1, true, 11)
	finishReveal(t, e)

	e.Handle(NominateEvent{Index: 2})
	first := e.Snapshot()

	e.Handle(NominateEvent{Index: 2})
	if diff := cmp.Diff(first, e.Snapshot()); diff != "" {
		t.Fatalf("repeated nomination changed state (-want +got)\n%s", diff)
	}

	if seat, ok := e.Candidate(); !ok || seat != 2 || !e.Confirming() {
		t.Fatalf("want candidate 2 confirming, got %d %v", seat, e.Confirming())
	}

	// 再次提名其他人只移动候选人
	e.Handle(NominateEvent{Index: 4})
	if seat, _ := e.Candidate(); seat != 4 {
		t.Fatalf("want candidate 4 got %d", seat)
	}

	if e.Phase() != PHASE_POLL || !e.Players()[4].Alive() {
		t.Fatalf("nomination should not eliminate anyone")
	}
}

func TestEngine_NominateRejectsInvalidSeats(t *testing.T) {
	e := newTestEngine(t, 3, 1, true, 5)
	finishReveal(t, e)

	if e.Handle(NominateEvent{Index: -1}) || e.Handle(NominateEvent{Index: 5}) {
		t.Fatalf("out-of-range nominations should be ignored")
	}

	citizen := seatsOf(e, ROLE_CITIZEN)[0]
	eliminate(t, e, citizen)

	if e.Handle(NominateEvent{Index: citizen}) {
		t.Fatalf("nominating a dead seat should be ignored")
	}
}

func TestEngine_ConfirmNoKeepsEveryoneAlive(t *testing.T) {
	e := newTestEngine(t, 2, 1, false, 9)
	finishReveal(t, e)

	e.Handle(NominateEvent{Index: 1})
	if !e.Handle(ConfirmEvent{Decision: false}) {
		t.Fatalf("declining should be accepted")
	}

	if e.Confirming() {
		t.Fatalf("declining should clear the confirming flag")
	}

	if _, ok := e.Candidate(); ok {
		t.Fatalf("declining should clear the candidate")
	}

	for i, p := range e.Players() {
		if !p.Alive() {
			t.Fatalf("seat %d died after a declined confirmation", i)
		}
	}

	// 没有提名时确认无效
	if e.Handle(ConfirmEvent{Decision: true}) {
		t.Fatalf("confirm without nomination should be ignored")
	}
}

func TestEngine_EliminatingNonWhiteStaysInPoll(t *testing.T) {
	e := newTestEngine(t, 4, 1, true, 13)
	finishReveal(t, e)

	eliminate(t, e, seatsOf(e, ROLE_CITIZEN)[0])

	if e.Phase() != PHASE_POLL {
		t.Fatalf("want phase %s got %s", PHASE_POLL, e.Phase())
	}

	if e.IsOver() {
		t.Fatalf("game should continue")
	}

	snap := e.Snapshot()
	for _, p := range snap.Players {
		if !p.Alive && p.Role != ROLE_CITIZEN {
			t.Fatalf("dead seat should expose its role, got %+v", p)
		}

		if p.Alive && (p.Role != "" || p.RoleName != "") {
			t.Fatalf("alive seat leaked its role: %+v", p)
		}
	}
}

func TestEngine_TurnStarterRedrawSkipsDeadSeats(t *testing.T) {
	for seed := range uint64(50) {
		e := newTestEngine(t, 5, 1, true, seed)
		finishReveal(t, e)

		for _, seat := range seatsOf(e, ROLE_CITIZEN)[:2] {
			eliminate(t, e, seat)

			if e.IsOver() {
				t.Fatalf("seed %d: game ended too early", seed)
			}

			starter, _ := e.Player(e.TurnStarter())
			if !starter.Alive() {
				t.Fatalf("seed %d: dead seat %d chosen as turn starter", seed, e.TurnStarter())
			}
		}
	}
}

func TestEngine_LiveWhiteCanStartLaterRounds(t *testing.T) {
	seen := false

	for seed := range uint64(200) {
		e := newTestEngine(t, 3, 1, true, seed)
		finishReveal(t, e)
		eliminate(t, e, seatsOf(e, ROLE_CITIZEN)[0])

		starter, _ := e.Player(e.TurnStarter())
		if starter.Role() == ROLE_WHITE {
			seen = true
			break
		}
	}

	if !seen {
		t.Fatalf("a live white was never drawn as turn starter after an elimination")
	}
}

func TestEngine_ThreePlayersCitizensWin(t *testing.T) {
	e := newTestEngine(t, 2, 1, false, 1)
	finishReveal(t, e)

	eliminate(t, e, seatsOf(e, ROLE_UNDERCOVER)[0])

	winner, over := e.Winner()
	if !over || winner != ROLE_CITIZEN {
		t.Fatalf("want citizen win, got over=%v winner=%q", over, winner)
	}
}

func TestEngine_SnapshotCarriesDisplayNames(t *testing.T) {
	e := newTestEngine(t, 2, 1, false, 1)
	finishReveal(t, e)

	undercover := seatsOf(e, ROLE_UNDERCOVER)[0]
	eliminate(t, e, undercover)

	snap := e.Snapshot()
	if snap.Winner != ROLE_CITIZEN || snap.WinnerName != "Civil" {
		t.Fatalf("want winner Civil, got %q / %q", snap.Winner, snap.WinnerName)
	}

	for _, p := range snap.Players {
		if p.RoleName != p.Role.DisplayName() {
			t.Fatalf("seat %d: want role name %q got %q", p.Seat, p.Role.DisplayName(), p.RoleName)
		}
	}

	if snap.Players[undercover].RoleName != "Undercover" {
		t.Fatalf("unexpected role name %+v", snap.Players[undercover])
	}
}

func TestEngine_ThreePlayersUndercoverWinsWhenCitizenFalls(t *testing.T) {
	e := newTestEngine(t, 2, 1, false, 2)
	finishReveal(t, e)

	eliminate(t, e, seatsOf(e, ROLE_CITIZEN)[0])

	winner, over := e.Winner()
	if !over || winner != ROLE_UNDERCOVER {
		t.Fatalf("want undercover win, got over=%v winner=%q", over, winner)
	}
}

func TestEngine_WhiteEliminatedGuessesCitizenWord(t *testing.T) {
	e := newTestEngine(t, 3, 1, true, 21)
	finishReveal(t, e)

	eliminate(t, e, seatsOf(e, ROLE_WHITE)[0])

	if e.Phase() != PHASE_GUESS {
		t.Fatalf("want phase %s got %s", PHASE_GUESS, e.Phase())
	}

	if e.IsOver() {
		t.Fatalf("game should wait for the guess")
	}

	// 猜词阶段不接受投票
	if e.Handle(NominateEvent{Index: 0}) {
		t.Fatalf("nomination should be ignored during guess")
	}

	e.Handle(EditGuessEvent{Text: "Mes"})
	e.Handle(EditGuessEvent{Text: "Messi"})

	if e.GuessDraft() != "Messi" {
		t.Fatalf("want draft Messi got %q", e.GuessDraft())
	}

	if !e.Handle(SubmitGuessEvent{}) {
		t.Fatalf("submit should be accepted")
	}

	winner, over := e.Winner()
	if !over || winner != ROLE_WHITE {
		t.Fatalf("want white win, got over=%v winner=%q", over, winner)
	}

	snap := e.Snapshot()
	if snap.Words == nil || snap.Words.Citizen != "Messi" {
		t.Fatalf("words should be revealed at the end, got %+v", snap.Words)
	}
}

func TestEngine_WhiteEliminationEndingGameSkipsGuess(t *testing.T) {
	e := newTestEngine(t, 1, 1, true, 0)
	finishReveal(t, e)

	eliminate(t, e, seatsOf(e, ROLE_WHITE)[0])

	winner, over := e.Winner()
	if !over || winner != ROLE_WHITE {
		t.Fatalf("want white win, got over=%v winner=%q", over, winner)
	}

	if e.Phase() != PHASE_POLL {
		t.Fatalf("finished game should not enter %s, got %s", PHASE_GUESS, e.Phase())
	}
}

func TestEngine_WrongGuessReturnsToPoll(t *testing.T) {
	e := newTestEngine(t, 3, 1, true, 22)
	finishReveal(t, e)

	eliminate(t, e, seatsOf(e, ROLE_WHITE)[0])

	e.Handle(EditGuessEvent{Text: "Ronaldo"})
	e.Handle(SubmitGuessEvent{})

	if e.IsOver() {
		t.Fatalf("wrong guess with undercover alive should not end the game")
	}

	if e.Phase() != PHASE_POLL {
		t.Fatalf("want phase %s got %s", PHASE_POLL, e.Phase())
	}

	if guess, ok := e.SubmittedGuess(); !ok || guess != "Ronaldo" {
		t.Fatalf("want submitted guess Ronaldo got %q", guess)
	}

	// 白板已经猜过词，找出卧底即平民胜利
	eliminate(t, e, seatsOf(e, ROLE_UNDERCOVER)[0])

	winner, over := e.Winner()
	if !over || winner != ROLE_CITIZEN {
		t.Fatalf("want citizen win, got over=%v winner=%q", over, winner)
	}
}

func TestEngine_EmptyGuessCountsAsSubmitted(t *testing.T) {
	e := newTestEngine(t, 3, 1, true, 23)
	finishReveal(t, e)

	eliminate(t, e, seatsOf(e, ROLE_UNDERCOVER)[0])
	if e.IsOver() {
		t.Fatalf("citizens should not win while white has not guessed")
	}

	eliminate(t, e, seatsOf(e, ROLE_WHITE)[0])
	e.Handle(SubmitGuessEvent{})

	winner, over := e.Winner()
	if !over || winner != ROLE_CITIZEN {
		t.Fatalf("want citizen win after empty guess, got over=%v winner=%q", over, winner)
	}
}

func TestEngine_CorrectGuessTakesPrecedence(t *testing.T) {
	for _, guess := range []string{"messi", "MESSI", "Messi"} {
		t.Run(guess, func(t *testing.T) {
			e := newTestEngine(t, 3, 1, true, 31)
			finishReveal(t, e)

			eliminate(t, e, seatsOf(e, ROLE_UNDERCOVER)[0])
			eliminate(t, e, seatsOf(e, ROLE_WHITE)[0])

			if e.Phase() != PHASE_GUESS || e.IsOver() {
				t.Fatalf("want pending guess, got phase=%s over=%v", e.Phase(), e.IsOver())
			}

			// 卧底已全部出局，但猜中优先
			e.Handle(EditGuessEvent{Text: guess})
			e.Handle(SubmitGuessEvent{})

			winner, over := e.Winner()
			if !over || winner != ROLE_WHITE {
				t.Fatalf("want white win, got over=%v winner=%q", over, winner)
			}
		})
	}
}

func TestEngine_LowPopulationWithoutGuessWhiteWins(t *testing.T) {
	e := newTestEngine(t, 2, 1, true, 41)
	finishReveal(t, e)

	citizens := seatsOf(e, ROLE_CITIZEN)

	eliminate(t, e, citizens[0])
	if e.IsOver() {
		t.Fatalf("three players left, game should continue")
	}

	eliminate(t, e, citizens[1])

	winner, over := e.Winner()
	if !over || winner != ROLE_WHITE {
		t.Fatalf("want white win, got over=%v winner=%q", over, winner)
	}
}

func TestEngine_NothingChangesAfterOver(t *testing.T) {
	e := newTestEngine(t, 2, 1, false, 51)
	finishReveal(t, e)
	eliminate(t, e, seatsOf(e, ROLE_UNDERCOVER)[0])

	if !e.IsOver() {
		t.Fatalf("game should be over")
	}

	before := e.Snapshot()
	alive := seatsOf(e, ROLE_CITIZEN)[0]

	events := []Event{
		RevealEvent{},
		AdvanceEvent{},
		NominateEvent{Index: alive},
		ConfirmEvent{Decision: true},
		EditGuessEvent{Text: "Messi"},
		SubmitGuessEvent{},
	}

	for _, ev := range events {
		if e.Handle(ev) {
			t.Fatalf("event %#v should be ignored after game over", ev)
		}
	}

	if diff := cmp.Diff(before, e.Snapshot()); diff != "" {
		t.Fatalf("state changed after game over (-want +got)\n%s", diff)
	}
}
