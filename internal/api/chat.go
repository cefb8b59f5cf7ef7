package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"aussieguide-backend/internal/auth"
	"aussieguide-backend/internal/chat"
	"aussieguide-backend/internal/database"
	"aussieguide-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	sessionListLimit  = 10
	sessionTitleLimit = 40
)

type ChatService struct {
	db     *gorm.DB
	bot    *chat.Bot
	tokens *auth.TokenIssuer
}

func NewChatService(db *gorm.DB, bot *chat.Bot, tokens *auth.TokenIssuer) *ChatService {
	return &ChatService{db: db, bot: bot, tokens: tokens}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Get("/status", RestHandler(s.Status))

	r.Group(func(r chi.Router) {
		r.Use(s.tokens.Middleware)
		r.Post("/respond", RestHandler(s.Respond))
		r.Get("/user/sessions", RestHandler(s.GetSessions))
		r.Get("/user/sessions/{session_id}/messages", RestHandler(s.GetSessionMessages))
	})
}

func (s *ChatService) Status(r *http.Request) (any, error) {
	return api.StatusResponse{Status: "active"}, nil
}

func (s *ChatService) Respond(r *http.Request) (any, error) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "missing user identity")
	}

	req, err := ParseRequest[api.RespondRequest](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "query must not be empty")
	}

	session, err := s.resolveSession(userID, req)
	if err != nil {
		return nil, err
	}

	response, err := s.bot.Respond(r.Context(), session.ID, req.Query)
	if err != nil {
		return nil, err
	}

	return api.RespondResponse{Response: response, SessionID: session.ID.String()}, nil
}

// resolveSession looks up the caller's session, or creates a new one labeled
// with a prefix of the first message when no session id was provided.
func (s *ChatService) resolveSession(userID uint, req api.RespondRequest) (database.ChatSession, error) {
	if req.SessionID == "" {
		now := time.Now().UTC()
		session := database.ChatSession{
			ID:         uuid.New(),
			UserID:     userID,
			Title:      sessionTitle(req.Query),
			CreatedAt:  now,
			LastActive: now,
		}
		if err := database.CreateSession(s.db, &session); err != nil {
			return database.ChatSession{}, err
		}
		return session, nil
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return database.ChatSession{}, CodedErrorf(http.StatusBadRequest, "invalid session id '%v' provided: %w", req.SessionID, err)
	}

	session, err := database.GetUserSession(s.db, userID, sessionID)
	if errors.Is(err, database.ErrSessionNotFound) {
		return database.ChatSession{}, CodedErrorf(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return database.ChatSession{}, err
	}
	return session, nil
}

func (s *ChatService) GetSessions(r *http.Request) (any, error) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "missing user identity")
	}

	sessions, err := database.ListUserSessions(s.db, userID, sessionListLimit)
	if err != nil {
		return nil, err
	}

	resp := api.GetSessionsResponse{Sessions: make([]api.SessionSummary, 0, len(sessions))}
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, api.SessionSummary{
			ID:         session.ID.String(),
			Label:      session.Title,
			LastActive: session.LastActive.Format(time.RFC3339),
		})
	}

	return resp, nil
}

func (s *ChatService) GetSessionMessages(r *http.Request) (any, error) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "missing user identity")
	}

	sessionID, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	if _, err := database.GetUserSession(s.db, userID, sessionID); err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "session not found")
		}
		return nil, err
	}

	messages, err := database.GetSessionMessages(s.db, sessionID)
	if err != nil {
		return nil, err
	}

	resp := api.GetMessagesResponse{Messages: make([]api.MessageItem, 0, len(messages))}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, api.MessageItem{
			MessageType: msg.MessageType,
			Content:     msg.Content,
			Timestamp:   msg.Timestamp.Format("2006-01-02 15:04:05"),
			Metadata:    msg.Metadata,
		})
	}

	return resp, nil
}

func sessionTitle(query string) string {
	title := strings.TrimSpace(query)
	runes := []rune(title)
	if len(runes) > sessionTitleLimit {
		title = string(runes[:sessionTitleLimit])
	}
	return title
}
