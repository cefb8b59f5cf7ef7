package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aussieguide-backend/internal/database"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	validationPassed      = "passed"
	validationRegenerated = "regenerated"
)

// Bot runs the per-request orchestration sequence: compose the prompt from the
// bounded history, generate, validate topical compliance with a second model
// pass, format to HTML with a third, and persist the turn.
type Bot struct {
	llm     llms.Model
	db      *gorm.DB
	history *ConversationManager
}

func NewBot(apiKey, model string, db *gorm.DB, history *ConversationManager) (*Bot, error) {
	client, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("could not create OpenAI client: %w", err)
	}
	return &Bot{llm: client, db: db, history: history}, nil
}

// NewBotWithModel wires an already-constructed model, which lets tests inject
// a scripted one.
func NewBotWithModel(llm llms.Model, db *gorm.DB, history *ConversationManager) *Bot {
	return &Bot{llm: llm, db: db, history: history}
}

// Respond runs the full sequence for one user query and returns the final
// HTML-formatted response. Upstream failures are returned as-is; the HTTP
// layer maps them to a generic server error.
func (bot *Bot) Respond(ctx context.Context, sessionID uuid.UUID, query string) (string, error) {
	sid := sessionID.String()

	reply, err := bot.generate(ctx, composeMessages(systemPrompt, bot.history.Recent(sid), query))
	if err != nil {
		return "", err
	}

	valid, _, err := bot.validate(ctx, query, reply)
	if err != nil {
		return "", err
	}

	validation := validationPassed
	if !valid {
		// The validator suggests a corrected text, but the bot regenerates
		// with a stricter instruction and discards the suggestion.
		reply, err = bot.generate(ctx, composeMessages(systemPrompt+"\n\n"+regenerateNotice, bot.history.Recent(sid), query))
		if err != nil {
			return "", err
		}
		validation = validationRegenerated
	}

	formatted, err := bot.formatHTML(ctx, reply)
	if err != nil {
		return "", err
	}

	if err := bot.persistTurn(sessionID, query, formatted, validation); err != nil {
		return "", err
	}

	return formatted, nil
}

func composeMessages(system string, turns []Turn, query string) []llms.MessageContent {
	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, system)}
	for _, turn := range turns {
		messages = append(messages,
			llms.TextParts(llms.ChatMessageTypeHuman, turn.Query),
			llms.TextParts(llms.ChatMessageTypeAI, turn.Response))
	}
	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, query))
}

func (bot *Bot) generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	resp, err := bot.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("error calling model: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func (bot *Bot) validate(ctx context.Context, query, reply string) (bool, string, error) {
	prompt := fmt.Sprintf(validatorPrompt, query, reply)
	output, err := bot.generate(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return false, "", err
	}

	valid, text := parseValidatorOutput(output, reply)
	return valid, text, nil
}

// parseValidatorOutput splits the validator's reply on the first line break.
// Only the literal marker VALID counts as a pass; anything else, including
// output with no marker line at all, is a failure with fallback as the text.
func parseValidatorOutput(output, fallback string) (bool, string) {
	marker, rest, found := strings.Cut(output, "\n")
	if !found {
		return output == "VALID", fallback
	}
	return marker == "VALID", strings.TrimSpace(rest)
}

func (bot *Bot) formatHTML(ctx context.Context, text string) (string, error) {
	return bot.generate(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(htmlPrompt, text)),
	})
}

// persistTurn writes the user and bot rows, refreshes the session's activity
// timestamp, and appends to the bounded file history.
func (bot *Bot) persistTurn(sessionID uuid.UUID, query, response, validation string) error {
	now := time.Now().UTC()

	if err := database.SaveMessage(bot.db, &database.ChatMessage{
		SessionID:   sessionID,
		MessageType: database.MessageTypeUser,
		Content:     query,
		Timestamp:   now,
	}); err != nil {
		return err
	}

	metadata, err := json.Marshal(map[string]string{"validation": validation})
	if err != nil {
		return fmt.Errorf("could not marshal message metadata: %w", err)
	}

	if err := database.SaveMessage(bot.db, &database.ChatMessage{
		SessionID:   sessionID,
		MessageType: database.MessageTypeAI,
		Content:     response,
		Timestamp:   now.Add(time.Millisecond),
		Metadata:    datatypes.JSON(metadata),
	}); err != nil {
		return err
	}

	if err := database.TouchSession(bot.db, sessionID, now); err != nil {
		return err
	}

	return bot.history.Add(sessionID.String(), query, response)
}
