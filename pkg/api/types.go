package api

type StatusResponse struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Username string `json:"username"`
}

// Login credentials arrive form-encoded, not as JSON.
type LoginRequest struct {
	Username string `schema:"username"`
	Password string `schema:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RespondRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type RespondResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type SessionSummary struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	LastActive string `json:"last_active"`
}

type GetSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

type MessageItem struct {
	MessageType string `json:"message_type"` // "user" or "ai"
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	Metadata    any    `json:"metadata,omitempty"`
}

type GetMessagesResponse struct {
	Messages []MessageItem `json:"messages"`
}
