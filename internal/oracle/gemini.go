package oracle

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ContentModels is the slice of *genai.Models the oracle uses.
type ContentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Gemini struct {
	models ContentModels
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return NewGeminiWithModels(client.Models, model), nil
}

func NewGeminiWithModels(models ContentModels, model string) *Gemini {
	return &Gemini{models: models, model: model}
}

func (g *Gemini) Generate(ctx context.Context, req Request) (Reply, error) {
	contents := make([]*genai.Content, 0, len(req.History)+3)
	for _, m := range req.History {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	if req.ToolResult != nil {
		// second step: answer in text from the tool output
		call := req.ToolResult.Call
		contents = append(contents,
			genai.NewContentFromParts([]*genai.Part{genai.NewPartFromFunctionCall(call.Name, call.Args)}, genai.RoleModel),
			genai.NewContentFromParts([]*genai.Part{genai.NewPartFromFunctionResponse(call.Name, req.ToolResult.Output)}, genai.RoleUser),
		)
	} else if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: functionDeclarations(req.Tools)}}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return Reply{}, fmt.Errorf("gemini generate: %w", err)
	}

	if calls := resp.FunctionCalls(); len(calls) > 0 && req.ToolResult == nil {
		return Reply{Call: &ToolCall{Name: calls[0].Name, Args: calls[0].Args}}, nil
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Reply{}, ErrEmptyReply
	}
	return Reply{Text: text}, nil
}

func functionDeclarations(tools []ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if len(tool.Params) > 0 {
			schema := &genai.Schema{
				Type:       genai.TypeObject,
				Properties: make(map[string]*genai.Schema, len(tool.Params)),
			}
			for _, p := range tool.Params {
				t := genai.TypeString
				if p.Type == ParamInteger {
					t = genai.TypeInteger
				}
				schema.Properties[p.Name] = &genai.Schema{Type: t, Description: p.Description}
				if p.Required {
					schema.Required = append(schema.Required, p.Name)
				}
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls
}
