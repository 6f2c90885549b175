// Package assistant runs the chat-completion loop that lets the model call
// the administrative operation catalog.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	catalogx "github.com/tanakrit/eduadmin-agent/agent/catalog"
	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
	promptx "github.com/tanakrit/eduadmin-agent/agent/prompt"
)

const (
	collectionAILogs = "ai_logs"

	// maxToolRounds bounds how many completion round trips one prompt may
	// take; each round may carry several tool calls.
	maxToolRounds = 5
)

type Config struct {
	Model       string
	Temperature float64
}

type Assistant struct {
	client     openaisdk.Client
	dispatcher contractx.Dispatcher
	docs       contractx.DocumentStore

	model       string
	temperature float64

	now   func() time.Time
	newID func() string
}

// Option customizes an Assistant.
type Option func(*Assistant)

func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		if now != nil {
			a.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(a *Assistant) {
		if newID != nil {
			a.newID = newID
		}
	}
}

func New(client openaisdk.Client, dispatcher contractx.Dispatcher, docs contractx.DocumentStore, cfg Config, opts ...Option) (*Assistant, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}

	a := &Assistant{
		client:      client,
		dispatcher:  dispatcher,
		docs:        docs,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Respond sends the administrator's prompt to the model with the operation
// catalog attached, dispatches any tool calls it makes, feeds the results
// back, and returns the final text reply. The exchange is recorded in the
// ai_logs collection.
func (a *Assistant) Respond(ctx context.Context, userPrompt string) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(a.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(promptx.Admin()),
			openaisdk.UserMessage(userPrompt),
		},
		Tools:       catalogx.Tools(),
		Temperature: openaisdk.Float(a.temperature),
	}

	var toolsUsed []string
	for round := 0; round < maxToolRounds; round++ {
		completion, err := a.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", errors.New("chat completion returned no choices")
		}

		message := completion.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			a.recordExchange(ctx, userPrompt, message.Content, toolsUsed)
			return message.Content, nil
		}

		params.Messages = append(params.Messages, message.ToParam())
		for _, call := range message.ToolCalls {
			toolsUsed = append(toolsUsed, call.Function.Name)
			result := a.dispatchCall(ctx, call.Function.Name, call.Function.Arguments)
			params.Messages = append(params.Messages, openaisdk.ToolMessage(result, call.ID))
		}
	}

	return "", fmt.Errorf("no final reply after %d tool rounds", maxToolRounds)
}

// dispatchCall resolves one tool call through the registry. Failures are
// returned to the model as text so it can report the cause; they do not
// abort the conversation.
func (a *Assistant) dispatchCall(ctx context.Context, name, rawArgs string) string {
	args := make(map[string]any)
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return fmt.Sprintf("error: malformed arguments: %v", err)
		}
	}

	result, err := a.dispatcher.Dispatch(ctx, name, args)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return result
}

// recordExchange appends the exchange to the ai_logs collection. Logging is
// best effort; a store failure must not lose the reply.
func (a *Assistant) recordExchange(ctx context.Context, prompt, reply string, tools []string) {
	entry := contractx.AILogEntry{
		ID:        a.newID(),
		Prompt:    prompt,
		Reply:     reply,
		Tools:     tools,
		CreatedAt: a.now().UTC(),
	}
	record, err := contractx.ToRecord(entry)
	if err != nil {
		log.Warn().Err(err).Msg("encode ai log entry")
		return
	}
	if err := a.docs.SetDocument(ctx, collectionAILogs, entry.ID, record); err != nil {
		log.Warn().Err(err).Msg("persist ai log entry")
	}
}
