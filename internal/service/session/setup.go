package session

import (
	"fmt"

	"undercover-be/internal/service/game"
)

const (
	// 开局至少需要的玩家数
	MIN_PLAYERS = 3
	// 保底的平民数，调整卧底和白板时不会低于它
	MIN_CITIZENS = 2

	NEW_PLAYER_NAME = "New Player"
)

// Setup 是开局前的配置：玩家名单、身份数量和可选的自定义词语。
// 每次修改后 citizen + undercover + white 都等于名单长度。
type Setup struct {
	names      []string
	citizen    int
	undercover int
	white      bool

	// 正在编辑的名字
	editIndex int

	words *game.SecretWords
}

func DefaultSetup() *Setup {
	return &Setup{
		names:      []string{"Player1", "Player2", "Player3"},
		citizen:    2,
		undercover: 1,
	}
}

// NewSetup 沿用上一局的名单，身份数量回到一名卧底、无白板
func NewSetup(names []string) *Setup {
	if len(names) < MIN_PLAYERS {
		return DefaultSetup()
	}

	return &Setup{
		names:      append([]string(nil), names...),
		citizen:    len(names) - 1,
		undercover: 1,
	}
}

func (s *Setup) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Setup) Citizen() int {
	return s.citizen
}

func (s *Setup) Undercover() int {
	return s.undercover
}

func (s *Setup) White() bool {
	return s.white
}

func (s *Setup) EditIndex() int {
	return s.editIndex
}

// Words 返回自定义词语，未设置时返回 false
func (s *Setup) Words() (game.SecretWords, bool) {
	if s.words == nil {
		return game.SecretWords{}, false
	}

	return *s.words, true
}

func (s *Setup) IncrementUndercover() {
	if s.citizen > MIN_CITIZENS {
		s.undercover++
		s.citizen--
	}
}

func (s *Setup) DecrementUndercover() {
	if s.undercover > 1 {
		s.undercover--
		s.citizen++
	}
}

func (s *Setup) EnableWhite(enable bool) {
	if enable {
		if !s.white && s.citizen > MIN_CITIZENS {
			s.citizen--
			s.white = true
		}
		return
	}

	if s.white {
		s.citizen++
		s.white = false
	}
}

func (s *Setup) AddName() {
	s.editIndex = len(s.names)
	s.names = append(s.names, NEW_PLAYER_NAME)
	s.citizen++
}

// RemoveName 删除一个名字，名额依次从平民（保底以上）、白板、卧底中扣除
func (s *Setup) RemoveName(index int) {
	if len(s.names) <= MIN_PLAYERS || index < 0 || index >= len(s.names) {
		return
	}

	s.names = append(s.names[:index], s.names[index+1:]...)

	switch {
	case s.citizen > MIN_CITIZENS:
		s.citizen--
	case s.white:
		s.white = false
	case s.undercover > 1:
		s.undercover--
	default:
		s.citizen--
	}

	// 选中的名字在被删除的名字之后时跟随前移
	if index < s.editIndex {
		s.editIndex--
	}

	if s.editIndex >= len(s.names) {
		s.editIndex = len(s.names) - 1
	}
}

func (s *Setup) SetEditIndex(index int) {
	if index >= 0 && index < len(s.names) {
		s.editIndex = index
	}
}

// EditName 修改当前选中的名字，校验失败时保留原名
func (s *Setup) EditName(name string) error {
	if err := game.ValidateName(name); err != nil {
		return err
	}

	s.names[s.editIndex] = name

	return nil
}

func (s *Setup) SetWords(citizen, undercover string) error {
	words, err := game.NewSecretWords(citizen, undercover)
	if err != nil {
		return err
	}

	s.words = &words

	return nil
}

// ClearWords 取消自定义词语，开局时重新从词库抽取
func (s *Setup) ClearWords() {
	s.words = nil
}

// NewEngine 按当前配置创建一局游戏
func (s *Setup) NewEngine(opts ...game.Option) (*game.Engine, error) {
	engine, err := game.NewEngine(s.names, s.citizen, s.undercover, s.white, opts...)
	if err != nil {
		return nil, fmt.Errorf("无法开始游戏: %w", err)
	}

	return engine, nil
}

type SetupSnapshot struct {
	Names       []string `json:"names"`
	Citizen     int      `json:"citizen"`
	Undercover  int      `json:"undercover"`
	White       bool     `json:"white"`
	EditIndex   int      `json:"edit_index"`
	CustomWords bool     `json:"custom_words"`
}

func (s *Setup) Snapshot() SetupSnapshot {
	return SetupSnapshot{
		Names:       s.Names(),
		Citizen:     s.citizen,
		Undercover:  s.undercover,
		White:       s.white,
		EditIndex:   s.editIndex,
		CustomWords: s.words != nil,
	}
}
