package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aussieguide-backend/internal/auth"
	"aussieguide-backend/internal/chat"
	"aussieguide-backend/internal/database"
	pkgapi "aussieguide-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// ruleModel answers by prompt shape so any number of orchestration rounds can
// run without scripting each call.
type ruleModel struct{}

func (m *ruleModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	last := messages[len(messages)-1]
	text, ok := last.Parts[0].(llms.TextContent)
	if !ok {
		return nil, fmt.Errorf("unexpected prompt part")
	}

	var reply string
	switch {
	case strings.Contains(text.Text, "VALID or INVALID"):
		reply = "VALID\nlooks fine"
	case strings.Contains(text.Text, "convert the following text into HTML"):
		reply = "<div><p>Plenty of options across Australia.</p></div>"
	default:
		reply = "Plenty of options across Australia."
	}

	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *ruleModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	history := chat.NewConversationManager(filepath.Join(t.TempDir(), "history.json"))
	bot := chat.NewBotWithModel(&ruleModel{}, db, history)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	router := chi.NewRouter()
	NewAuthService(db, tokens).AddRoutes(router)
	NewChatService(db, bot, tokens).AddRoutes(router)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, endpoint, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, endpoint, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func registerAndLogin(t *testing.T, router http.Handler, username, email, password string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/register", "", pkgapi.RegisterRequest{
		Username: username, Email: email, Password: password,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	form := fmt.Sprintf("username=%s&password=%s", username, password)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	loginRec := httptest.NewRecorder()
	router.ServeHTTP(loginRec, req)
	require.Equal(t, http.StatusOK, loginRec.Code)

	login := decodeBody[pkgapi.LoginResponse](t, loginRec)
	require.NotEmpty(t, login.AccessToken)
	require.Equal(t, "bearer", login.TokenType)
	return login.AccessToken
}

func TestStatusEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", decodeBody[pkgapi.StatusResponse](t, rec).Status)
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/register", "", pkgapi.RegisterRequest{Username: "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/register", "", pkgapi.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Same username, different email.
	rec = doJSON(t, router, http.MethodPost, "/register", "", pkgapi.RegisterRequest{
		Username: "alice", Email: "b@x.com", Password: "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Same email, different username.
	rec = doJSON(t, router, http.MethodPost, "/register", "", pkgapi.RegisterRequest{
		Username: "bob", Email: "a@x.com", Password: "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router := newTestRouter(t)
	registerAndLogin(t, router, "alice", "a@x.com", "pw123")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=alice&password=wrong"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=nobody&password=pw123"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRespondRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/respond", "", pkgapi.RespondRequest{Query: "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRespondSessionFlow(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "a@x.com", "pw123")

	// First respond with no session id creates one.
	rec := doJSON(t, router, http.MethodPost, "/respond", token, pkgapi.RespondRequest{
		Query: "Best time to visit Uluru?",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeBody[pkgapi.RespondResponse](t, rec)
	require.NotEmpty(t, first.SessionID)
	require.NotEmpty(t, first.Response)

	// Second respond with the returned id reuses the session.
	rec = doJSON(t, router, http.MethodPost, "/respond", token, pkgapi.RespondRequest{
		Query:     "What about the Great Ocean Road?",
		SessionID: first.SessionID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[pkgapi.RespondResponse](t, rec)
	assert.Equal(t, first.SessionID, second.SessionID)

	// Exactly one session, labeled with the first message.
	rec = doJSON(t, router, http.MethodGet, "/user/sessions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := decodeBody[pkgapi.GetSessionsResponse](t, rec)
	require.Len(t, sessions.Sessions, 1)
	assert.Equal(t, first.SessionID, sessions.Sessions[0].ID)
	assert.Equal(t, "Best time to visit Uluru?", sessions.Sessions[0].Label)
	assert.NotEmpty(t, sessions.Sessions[0].LastActive)

	// Messages come back in timestamp order, alternating user/ai.
	rec = doJSON(t, router, http.MethodGet, "/user/sessions/"+first.SessionID+"/messages", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decodeBody[pkgapi.GetMessagesResponse](t, rec)
	require.Len(t, messages.Messages, 4)
	assert.Equal(t, database.MessageTypeUser, messages.Messages[0].MessageType)
	assert.Equal(t, "Best time to visit Uluru?", messages.Messages[0].Content)
	assert.Equal(t, database.MessageTypeAI, messages.Messages[1].MessageType)
	assert.Equal(t, database.MessageTypeUser, messages.Messages[2].MessageType)
	assert.Equal(t, "What about the Great Ocean Road?", messages.Messages[2].Content)
	assert.Equal(t, database.MessageTypeAI, messages.Messages[3].MessageType)
}

func TestRespondRejectsEmptyQuery(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "a@x.com", "pw123")

	rec := doJSON(t, router, http.MethodPost, "/respond", token, pkgapi.RespondRequest{Query: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondUnknownSession(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "a@x.com", "pw123")

	rec := doJSON(t, router, http.MethodPost, "/respond", token, pkgapi.RespondRequest{
		Query:     "hi",
		SessionID: "11111111-2222-3333-4444-555555555555",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionOwnership(t *testing.T) {
	router := newTestRouter(t)
	aliceToken := registerAndLogin(t, router, "alice", "a@x.com", "pw123")
	bobToken := registerAndLogin(t, router, "bob", "b@x.com", "pw456")

	rec := doJSON(t, router, http.MethodPost, "/respond", aliceToken, pkgapi.RespondRequest{
		Query: "Best beaches near Perth?",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := decodeBody[pkgapi.RespondResponse](t, rec).SessionID

	// Bob cannot read Alice's messages or post into her session.
	rec = doJSON(t, router, http.MethodGet, "/user/sessions/"+sessionID+"/messages", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/respond", bobToken, pkgapi.RespondRequest{
		Query: "hi", SessionID: sessionID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Bob sees none of Alice's sessions.
	rec = doJSON(t, router, http.MethodGet, "/user/sessions", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[pkgapi.GetSessionsResponse](t, rec).Sessions)
}

func TestSessionListCappedAndLabeled(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "a@x.com", "pw123")

	longQuery := strings.Repeat("Where should I go in Tasmania? ", 4)
	for i := 0; i < 12; i++ {
		rec := doJSON(t, router, http.MethodPost, "/respond", token, pkgapi.RespondRequest{
			Query: fmt.Sprintf("%s #%d", longQuery, i),
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/user/sessions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := decodeBody[pkgapi.GetSessionsResponse](t, rec)
	require.Len(t, sessions.Sessions, 10)
	for _, session := range sessions.Sessions {
		assert.LessOrEqual(t, len([]rune(session.Label)), 40)
	}
}
