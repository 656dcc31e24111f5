package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 游戏内的请求类型
const (
	REQ_REVEAL       = "Reveal"
	REQ_ADVANCE      = "Advance"
	REQ_NOMINATE     = "Nominate"
	REQ_CONFIRM      = "Confirm"
	REQ_EDIT_GUESS   = "EditGuess"
	REQ_SUBMIT_GUESS = "SubmitGuess"
)

// Event 是展示层可以提交给 Engine 的意图事件，只有本包内的类型实现它
type Event interface {
	EventType() string
	isEvent()
}

// 查看当前玩家的词语
type RevealEvent struct{}

// 当前玩家看完词语，轮到下一位
type AdvanceEvent struct{}

// 提名淘汰某个座位，等待确认
type NominateEvent struct {
	Index int `json:"index"`
}

type ConfirmEvent struct {
	Decision bool `json:"decision"`
}

// 修改白板的猜词输入
type EditGuessEvent struct {
	Text string `json:"text"`
}

type SubmitGuessEvent struct{}

func (RevealEvent) EventType() string      { return REQ_REVEAL }
func (AdvanceEvent) EventType() string     { return REQ_ADVANCE }
func (NominateEvent) EventType() string    { return REQ_NOMINATE }
func (ConfirmEvent) EventType() string     { return REQ_CONFIRM }
func (EditGuessEvent) EventType() string   { return REQ_EDIT_GUESS }
func (SubmitGuessEvent) EventType() string { return REQ_SUBMIT_GUESS }

func (RevealEvent) isEvent()      {}
func (AdvanceEvent) isEvent()     {}
func (NominateEvent) isEvent()    {}
func (ConfirmEvent) isEvent()     {}
func (EditGuessEvent) isEvent()   {}
func (SubmitGuessEvent) isEvent() {}

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TryUnwrap 在请求类型匹配时解析数据，类型不符或解析失败时返回 nil。
// 没有数据的请求解析为零值。
func TryUnwrap[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	var req T

	if len(wrapper.Data) == 0 {
		return &req
	}

	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		zap.L().Error(
			"Failed to unwrap request",
			zap.String("request_type", reqType),
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &req
}

func IsGameRequest(reqType string) bool {
	switch reqType {
	case REQ_REVEAL, REQ_ADVANCE, REQ_NOMINATE, REQ_CONFIRM, REQ_EDIT_GUESS, REQ_SUBMIT_GUESS:
		return true
	default:
		return false
	}
}

// UnwrapGameEvent 把请求转换为游戏事件，非游戏请求或数据无效时返回 false
func UnwrapGameEvent(wrapper RequestWrapper) (Event, bool) {
	var ev Event

	switch wrapper.ReqType {
	case REQ_REVEAL:
		ev = unwrapEvent[RevealEvent](wrapper)
	case REQ_ADVANCE:
		ev = unwrapEvent[AdvanceEvent](wrapper)
	case REQ_NOMINATE:
		ev = unwrapEvent[NominateEvent](wrapper)
	case REQ_CONFIRM:
		ev = unwrapEvent[ConfirmEvent](wrapper)
	case REQ_EDIT_GUESS:
		ev = unwrapEvent[EditGuessEvent](wrapper)
	case REQ_SUBMIT_GUESS:
		ev = unwrapEvent[SubmitGuessEvent](wrapper)
	}

	return ev, ev != nil
}

func unwrapEvent[T Event](wrapper RequestWrapper) Event {
	req := TryUnwrap[T](wrapper, wrapper.ReqType)
	if req == nil {
		return nil
	}

	return *req
}

// 通用响应类型
const (
	RESP_ERROR = "Error"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data,omitempty"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}
