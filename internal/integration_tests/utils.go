package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aussieguide-backend/internal/api"
	"aussieguide-backend/internal/auth"
	"aussieguide-backend/internal/chat"
	"aussieguide-backend/internal/database"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/tmc/langchaingo/llms"
)

// ruleModel answers by prompt shape, so the orchestrator can run any number
// of rounds against it without a live LLM.
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
		reply = "<div><p>May through September is ideal.</p></div>"
	default:
		reply = "May through September is ideal."
	}

	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *ruleModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

func createTestServer(t *testing.T) chi.Router {
	db, err := database.NewDatabase(setupPostgresContainer(t, context.Background()))
	require.NoError(t, err)

	history := chat.NewConversationManager(filepath.Join(t.TempDir(), "history.json"))
	bot := chat.NewBotWithModel(&ruleModel{}, db, history)
	tokens := auth.NewTokenIssuer("integration-test-secret", time.Hour)

	router := chi.NewRouter()
	api.NewAuthService(db, tokens).AddRoutes(router)
	api.NewChatService(db, bot, tokens).AddRoutes(router)
	return router
}

func httpRequest(server http.Handler, method, endpoint, token string, payload any, dest any) error {
	var body io.Reader
	if payload != nil {
		requestBody, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(requestBody)
	}

	req := httptest.NewRequest(method, endpoint, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		return fmt.Errorf("expected status code 200, got %d: %v", rr.Code, rr.Body.String())
	}

	if dest != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func formRequest(server http.Handler, endpoint string, form map[string]string, dest any) error {
	values := make([]string, 0, len(form))
	for key, value := range form {
		values = append(values, key+"="+value)
	}

	req := httptest.NewRequest(http.MethodPost, endpoint, strings.NewReader(strings.Join(values, "&")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		return fmt.Errorf("expected status code 200, got %d: %v", rr.Code, rr.Body.String())
	}

	if dest != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
