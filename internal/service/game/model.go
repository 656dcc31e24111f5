package game

import (
	"errors"
	"fmt"
)

// 玩家身份
type Role string

const (
	ROLE_CITIZEN    Role = "Citizen"
	ROLE_UNDERCOVER Role = "Undercover"
	ROLE_WHITE      Role = "White"
)

// RoleOrder 是开局抽取身份类别时使用的顺序
var RoleOrder = [...]Role{ROLE_CITIZEN, ROLE_UNDERCOVER, ROLE_WHITE}

// DisplayName 是结算界面使用的展示名称
func (r Role) DisplayName() string {
	switch r {
	case ROLE_CITIZEN:
		return "Civil"
	case ROLE_UNDERCOVER:
		return "Undercover"
	case ROLE_WHITE:
		return "Mr. White"
	default:
		return string(r)
	}
}

// 玩家名称的最大字节数
const MAX_NAME_BYTES = 30

var ErrInvalidName = errors.New("玩家名称无效")

func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: 名称不能为空", ErrInvalidName)
	}

	if len(name) > MAX_NAME_BYTES {
		return fmt.Errorf("%w: 名称不能超过 %d 字节", ErrInvalidName, MAX_NAME_BYTES)
	}

	return nil
}

// Player 在开局时创建，之后只有存活状态会因淘汰而改变。
// 被淘汰的玩家仍然留在座位表里。
type Player struct {
	name  string
	role  Role
	alive bool
}

func NewPlayer(name string, role Role) (*Player, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	return &Player{
		name:  name,
		role:  role,
		alive: true,
	}, nil
}

func (p *Player) Name() string {
	return p.name
}

// SetName 校验失败时保留原名称
func (p *Player) SetName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	p.name = name
	return nil
}

func (p *Player) Role() Role {
	return p.role
}

// SetRole 仅供开局和测试代码使用
func (p *Player) SetRole(role Role) {
	p.role = role
}

func (p *Player) Alive() bool {
	return p.alive
}

func (p *Player) SetAlive(alive bool) {
	p.alive = alive
}
