package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ContentGenerator is the part of llms.Model the oracle needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// LangChain talks to an OpenAI-compatible model. It is text only and never
// asks for tool calls.
type LangChain struct {
	llm ContentGenerator
}

func NewOpenAI(apiKey, model string) (*LangChain, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}
	return NewLangChain(llm), nil
}

func NewLangChain(llm ContentGenerator) *LangChain {
	return &LangChain{llm: llm}
}

func (l *LangChain) Generate(ctx context.Context, req Request) (Reply, error) {
	messages := make([]llms.MessageContent, 0, len(req.History)+3)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, m := range req.History {
		msgType := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			msgType = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(msgType, m.Text))
	}
	if req.ToolResult != nil {
		data, err := json.Marshal(req.ToolResult.Output)
		if err != nil {
			return Reply{}, fmt.Errorf("encode tool result: %w", err)
		}
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem,
			fmt.Sprintf("Result of %s: %s", req.ToolResult.Call.Name, data)))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	response, err := l.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.3))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to generate completion: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return Reply{}, ErrEmptyReply
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return Reply{}, ErrEmptyReply
	}
	return Reply{Text: text}, nil
}
