package dto

import "undercover-be/internal/service/session"

type CreateSessionResponse struct {
	SessionID string           `json:"session_id"`
	JoinURL   string           `json:"join_url,omitempty"`
	State     session.Snapshot `json:"state"`
}

// 连接建立后单播给加入者，之后的状态变化通过 SessionState 广播
type JoinSessionResponse struct {
	SessionID string           `json:"session_id"`
	ClientID  string           `json:"client_id"`
	State     session.Snapshot `json:"state"`
}

type SessionStateResponse struct {
	SessionID string           `json:"session_id"`
	State     session.Snapshot `json:"state"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
