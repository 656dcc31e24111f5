package game

import (
	"errors"
	"strings"
)

var ErrInvalidWords = errors.New("词语设置无效")

// SecretWords 保存本局的两个秘密词语，白板没有词语
type SecretWords struct {
	Citizen    string `json:"citizen"`
	Undercover string `json:"undercover"`
}

// 未配置词库时使用的默认词语
var DefaultWords = SecretWords{
	Citizen:    "Messi",
	Undercover: "Ronaldo",
}

func NewSecretWords(citizen, undercover string) (SecretWords, error) {
	words := SecretWords{
		Citizen:    strings.TrimSpace(citizen),
		Undercover: strings.TrimSpace(undercover),
	}

	if err := words.Validate(); err != nil {
		return SecretWords{}, err
	}

	return words, nil
}

// Validate 要求两个词语都非空且互不相同（忽略大小写）
func (w SecretWords) Validate() error {
	if w.Citizen == "" || w.Undercover == "" {
		return errors.Join(ErrInvalidWords, errors.New("平民词和卧底词不能为空"))
	}

	if strings.EqualFold(w.Citizen, w.Undercover) {
		return errors.Join(ErrInvalidWords, errors.New("平民词和卧底词不能相同"))
	}

	return nil
}

// WordFor 返回身份对应的词语，白板返回 false
func (w SecretWords) WordFor(role Role) (string, bool) {
	switch role {
	case ROLE_CITIZEN:
		return w.Citizen, true
	case ROLE_UNDERCOVER:
		return w.Undercover, true
	default:
		return "", false
	}
}

// Matches 判断猜测是否命中平民词
func (w SecretWords) Matches(guess string) bool {
	return strings.EqualFold(guess, w.Citizen)
}
